// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mattrussellcrick/bigwarp/internal/ops"
)

func init() { gin.SetMode(gin.TestMode) }

func doRequest(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	r := NewRouter(&ops.Context{MaxSamples: 1 << 20, MaxThreads: 2})
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("err=%v decoding %q; want nil", err, w.Body.String())
	}
	return w.Code, res
}

func TestPing(t *testing.T) {
	code, res := doRequest(t, http.MethodGet, "/api/v1/ping", "")
	if code != http.StatusOK || res["message"] != "pong" {
		t.Errorf("code=%d res=%v; want 200 pong", code, res)
	}
}

func TestIndex(t *testing.T) {
	r := NewRouter(&ops.Context{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/batch") {
		t.Errorf("code=%d; want 200 with batch form", w.Code)
	}
}

func TestPostBoundingBox(t *testing.T) {
	body := `{"interval":{"min":[0,0],"max":[1,2]},"corners":true,
		"transform":{"type":"affine","matrix":[2,0,1,0,3,-1]}}`
	code, res := doRequest(t, http.MethodPost, "/api/v1/bbox", body)
	if code != http.StatusOK {
		t.Fatalf("code=%d res=%v; want 200", code, res)
	}
	interval := res["result"].(map[string]interface{})["interval"].(map[string]interface{})
	min, max := interval["min"].([]interface{}), interval["max"].([]interface{})
	if min[0] != 1.0 || min[1] != -1.0 || max[0] != 3.0 || max[1] != 5.0 {
		t.Errorf("interval=%v; want [1 -1]-[3 5]", interval)
	}
	if !strings.Contains(res["log"].(string), "Bounding box") {
		t.Errorf("log=%q; want bounding box message", res["log"])
	}
}

func TestPostErrors(t *testing.T) {
	if code, _ := doRequest(t, http.MethodPost, "/api/v1/bbox", `{"interval":`); code != http.StatusBadRequest {
		t.Errorf("code=%d for malformed JSON; want %d", code, http.StatusBadRequest)
	}
	code, res := doRequest(t, http.MethodPost, "/api/v1/init", `{"width":0,"height":600,
		"source":{"extent":{"min":[0,0,0],"max":[99,99,0]}}}`)
	if code != http.StatusUnprocessableEntity || res["error"] == nil {
		t.Errorf("code=%d res=%v; want %d with error", code, res, http.StatusUnprocessableEntity)
	}
}

func TestPostBatchTooManyCorners(t *testing.T) {
	bounds := "[" + strings.TrimSuffix(strings.Repeat("0,", 63), ",") + "]"
	body := `{"steps":[{"type":"bbox","id":1,"interval":{"min":` + bounds + `,"max":` + bounds + `},"corners":true}]}`
	code, res := doRequest(t, http.MethodPost, "/api/v1/batch", body)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("code=%d res=%v; want %d", code, res, http.StatusUnprocessableEntity)
	}
	if msg, _ := res["error"].(string); !strings.Contains(msg, "too many samples") {
		t.Errorf("error=%q; want too many samples", msg)
	}

	// the server keeps serving
	if code, _ := doRequest(t, http.MethodGet, "/api/v1/ping", ""); code != http.StatusOK {
		t.Errorf("code=%d; want %d", code, http.StatusOK)
	}
}

func TestPostBatch(t *testing.T) {
	body := `{"steps":[
		{"type":"bbox","id":1,"interval":{"min":[0,0],"max":[1,1]},"spacing":[0.5,0.5]},
		{"type":"init","id":2,"width":800,"height":600,"source":{"extent":{"min":[0,0,0],"max":[99,99,0]}}}
	]}`
	code, res := doRequest(t, http.MethodPost, "/api/v1/batch", body)
	if code != http.StatusOK {
		t.Fatalf("code=%d res=%v; want 200", code, res)
	}
	if rs := res["results"].([]interface{}); len(rs) != 2 {
		t.Errorf("results=%v; want 2", rs)
	}
}
