package e2e

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/haze/nocap/pkg/types"
)

func recognize(t *testing.T, url, challenge string) (int, []byte) {
	t.Helper()
	body := `{"challenge":"` + challenge + `","image_type":"base64","image":"` + base64.StdEncoding.EncodeToString([]byte("image")) + `"}`
	resp, err := http.Post(url+"/recognize", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestE2E_RecognizeBus(t *testing.T) {
	dir := createModelsDir(t, map[string]stubModel{"bus": {Affirmative: 0.9, Negative: 0.1}})
	srv, _ := newServerForDir(t, dir)

	code, b := recognize(t, srv.URL, "bus")
	if code != http.StatusOK {
		t.Fatalf("status=%d body=%s", code, b)
	}
	var p types.Prediction
	if err := json.Unmarshal(b, &p); err != nil {
		t.Fatalf("json: %v", err)
	}
	if p.AffirmativeConfidence != 0.9 || p.NegativeConfidence != 0.1 || !p.IsMainlyAffirmative() {
		t.Fatalf("unexpected prediction: %+v", p)
	}
}

func TestE2E_ChallengeWithoutModelIsGeneric(t *testing.T) {
	dir := createModelsDir(t, map[string]stubModel{"bus": {Affirmative: 0.9, Negative: 0.1}})
	srv, _ := newServerForDir(t, dir)

	code, b := recognize(t, srv.URL, "taxis")
	if code != http.StatusInternalServerError {
		t.Fatalf("status=%d", code)
	}
	var e types.ErrorResponse
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("json: %v", err)
	}
	if e.Err != types.ErrTagGeneric || e.Meta != "Prediction failed" {
		t.Fatalf("unexpected error body: %s", b)
	}
}

func TestE2E_ConcurrentRequestsAcrossChallenges(t *testing.T) {
	dir := createModelsDir(t, map[string]stubModel{
		"bus":            {Affirmative: 0.9, Negative: 0.1},
		"traffic_lights": {Affirmative: 0.2, Negative: 0.8},
		"crosswalks":     {Affirmative: 0.6, Negative: 0.4},
	})
	srv, reg := newServerForDir(t, dir)

	names := []string{"bus", "traffic_lights", "crosswalks"}
	var wg sync.WaitGroup
	errs := make(chan string, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if code, b := recognize(t, srv.URL, name); code != http.StatusOK {
				errs <- name + ": " + string(b)
			}
		}(names[i%len(names)])
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("request failed: %s", e)
	}

	var served uint64
	for _, cs := range reg.Status().Challenges {
		served += cs.Served
	}
	if served != 30 {
		t.Fatalf("served=%d", served)
	}
}

func TestE2E_PanickingModelIsDisabled(t *testing.T) {
	dir := createModelsDir(t, map[string]stubModel{
		"bus":   {Panic: true},
		"taxis": {Affirmative: 0.3, Negative: 0.7},
	})
	srv, _ := newServerForDir(t, dir)

	for i := 0; i < 2; i++ {
		if code, _ := recognize(t, srv.URL, "bus"); code != http.StatusInternalServerError {
			t.Fatalf("attempt %d: status=%d", i, code)
		}
	}
	if code, _ := recognize(t, srv.URL, "taxis"); code != http.StatusOK {
		t.Fatalf("taxis status=%d", code)
	}

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, cs := range st.Challenges {
		if cs.Poisoned != (cs.Challenge == "bus") {
			t.Fatalf("unexpected poison state: %+v", cs)
		}
	}
}

func TestE2E_ChallengesListing(t *testing.T) {
	dir := createModelsDir(t, map[string]stubModel{"stairs": {}, "bus": {}})
	srv, _ := newServerForDir(t, dir)
	resp, err := http.Get(srv.URL + "/challenges")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body types.ChallengesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Loaded) != 2 || body.Loaded[0] != "stairs" || body.Loaded[1] != "bus" {
		t.Fatalf("loaded=%v", body.Loaded)
	}
}
