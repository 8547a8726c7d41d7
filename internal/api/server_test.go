package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/siphor/siphor/internal/app/backup"
	"github.com/siphor/siphor/internal/app/bank"
	"github.com/siphor/siphor/internal/app/bounty"
	"github.com/siphor/siphor/internal/app/goals"
	"github.com/siphor/siphor/internal/app/history"
	"github.com/siphor/siphor/internal/app/ledger"
	"github.com/siphor/siphor/internal/domain"
	"github.com/siphor/siphor/internal/infra/catalog"
	"github.com/siphor/siphor/internal/infra/sqlite"
)

// Mutations are only allowed on the real current day, so tests operate on it.
var (
	today   = domain.DateKey(time.Now())
	curWeek = domain.WeekKey(today)
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat := catalog.Default()
	hist := history.New(db, 0)
	bk := bank.New(db)
	gl := goals.New(db, cat)
	led := ledger.New(db, cat, gl, hist, bk)
	bo := bounty.New(db, hist)
	bkp := backup.New(db)

	srv := NewServer(led, gl, hist, bk, bo, bkp, cat)
	srv.EnableMetrics()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "GET", ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, "GET", ts.URL+"/api/version", nil)
	if resp.StatusCode != http.StatusOK || body["version"] != Version {
		t.Errorf("version = %d %v", resp.StatusCode, body)
	}
}

func TestDropAndGetDay(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "regularGains-exercise", "name": "exercise",
		"scoreType": "gain", "score": 10,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("drop = %d %v", resp.StatusCode, body)
	}
	if body["dayScore"].(float64) != 10 {
		t.Errorf("dayScore = %v, want 10", body["dayScore"])
	}

	resp, body = doJSON(t, "GET", ts.URL+"/api/days/"+today, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get day = %d", resp.StatusCode)
	}
	gains := body["gains"].([]interface{})
	if len(gains) != 1 {
		t.Errorf("gains = %v", gains)
	}
	if body["weekKey"] != curWeek {
		t.Errorf("weekKey = %v, want %s", body["weekKey"], curWeek)
	}
}

func TestEmptyDayHasEmptyLists(t *testing.T) {
	ts := newTestServer(t)

	_, body := doJSON(t, "GET", ts.URL+"/api/days/"+today, nil)
	if body["gains"] == nil || body["deductions"] == nil {
		t.Errorf("lists must serialize as [], got %v", body)
	}
}

func TestPastDayMutationConflicts(t *testing.T) {
	ts := newTestServer(t)
	past := domain.AddDays(today, -1)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/days/"+past+"/entries", map[string]interface{}{
		"id": "x", "name": "x", "scoreType": "gain",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestBadPayloadRejected(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"name": "no id", "scoreType": "gain",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/api/days/not-a-date", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", resp.StatusCode)
	}
}

func TestRemoveEntry(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "deductions-snooze", "name": "snooze", "scoreType": "deduction", "score": 3,
	})
	resp, body := doJSON(t, "DELETE", ts.URL+"/api/days/"+today+"/entries/deductions/deductions-snooze", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove = %d %v", resp.StatusCode, body)
	}
	if len(body["deductions"].([]interface{})) != 0 {
		t.Errorf("deductions = %v, want removed", body["deductions"])
	}

	resp, _ = doJSON(t, "DELETE", ts.URL+"/api/days/"+today+"/entries/deductions/ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", ts.URL+"/api/days/"+today+"/entries/sideways/x", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad list status = %d, want 400", resp.StatusCode)
	}
}

func TestEntryEditEndpoints(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "deductions-snooze", "name": "snooze", "scoreType": "deduction", "score": 3,
	})
	resp, body := doJSON(t, "POST",
		ts.URL+"/api/days/"+today+"/entries/deductions/deductions-snooze/count",
		map[string]int{"count": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set count = %d %v", resp.StatusCode, body)
	}
	if body["dayScore"].(float64) != -9 {
		t.Errorf("dayScore = %v, want -9", body["dayScore"])
	}

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "regularGains-exercise", "name": "exercise", "scoreType": "gain", "score": 10,
	})
	resp, body = doJSON(t, "POST",
		ts.URL+"/api/days/"+today+"/entries/gains/regularGains-exercise/bonus", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bonus = %d", resp.StatusCode)
	}
	if body["dayScore"].(float64) != -9+20 {
		t.Errorf("dayScore = %v, want 11", body["dayScore"])
	}
}

func TestBankEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "POST", ts.URL+"/api/bank/deposit", map[string]interface{}{
		"dateKey": today, "amount": 100, "mode": "demand",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit = %d %v", resp.StatusCode, body)
	}
	if body["dayScore"].(float64) != -100 {
		t.Errorf("dayScore = %v, want -100", body["dayScore"])
	}

	resp, body = doJSON(t, "GET", ts.URL+"/api/bank", nil)
	if resp.StatusCode != http.StatusOK || body["demand"].(float64) != 100 {
		t.Errorf("bank = %d %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/api/bank/withdraw", map[string]interface{}{
		"dateKey": today, "amount": 500,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("overdraft status = %d, want 409", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/api/bank/deposit", map[string]interface{}{
		"dateKey": today, "amount": 0, "mode": "demand",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero amount status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "regularGains-exercise", "name": "exercise", "scoreType": "gain", "score": 10,
	})

	resp, body := doJSON(t, "GET", ts.URL+"/api/history/total/"+today, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("total = %d", resp.StatusCode)
	}
	if body["total"].(float64) != 10 {
		t.Errorf("total = %v, want 10", body["total"])
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/api/history/rebuild", map[string]int{"initial": 788})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rebuild = %d", resp.StatusCode)
	}
	_, body = doJSON(t, "GET", ts.URL+"/api/history/total/"+today, nil)
	if body["total"].(float64) != 798 {
		t.Errorf("total after rebuild = %v, want 798", body["total"])
	}
}

func TestHeatmapEndpoint(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "regularGains-exercise", "name": "exercise", "scoreType": "gain", "score": 10,
	})

	resp, body := doJSON(t, "GET", ts.URL+"/api/history/heatmap", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("heatmap = %d", resp.StatusCode)
	}
	days := body["days"].(map[string]interface{})
	if days[today].(float64) != 10 {
		t.Errorf("days = %v", days)
	}
}

func TestBountyEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, created := doJSON(t, "POST", ts.URL+"/api/bounties/"+curWeek, map[string]interface{}{
		"title": "deep clean", "points": 25,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add = %d %v", resp.StatusCode, created)
	}
	id := created["id"].(string)

	resp, toggled := doJSON(t, "POST",
		fmt.Sprintf("%s/api/bounties/%s/%s/toggle", ts.URL, curWeek, id),
		map[string]string{"dateKey": today})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle = %d %v", resp.StatusCode, toggled)
	}
	if toggled["completedDate"] != today {
		t.Errorf("completedDate = %v", toggled["completedDate"])
	}

	_, body := doJSON(t, "GET", ts.URL+"/api/days/"+today, nil)
	if body["dayScore"].(float64) != 25 {
		t.Errorf("dayScore = %v, want 25 from claimed bounty", body["dayScore"])
	}

	// Past weeks are locked.
	pastWeek := "week-" + domain.AddDays(curWeek[len("week-"):], -7)
	resp, _ = doJSON(t, "POST", ts.URL+"/api/bounties/"+pastWeek, map[string]interface{}{
		"title": "x", "points": 1,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("past week status = %d, want 409", resp.StatusCode)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	doJSON(t, "POST", ts.URL+"/api/days/"+today+"/entries", map[string]interface{}{
		"id": "regularGains-exercise", "name": "exercise", "scoreType": "gain", "score": 10,
	})

	resp, doc := doJSON(t, "GET", ts.URL+"/api/backup/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d", resp.StatusCode)
	}
	if doc["version"] != backup.Version {
		t.Errorf("version = %v", doc["version"])
	}

	ts2 := newTestServer(t)
	resp, body := doJSON(t, "POST", ts2.URL+"/api/backup/import", doc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import = %d %v", resp.StatusCode, body)
	}
	if body["days"].(float64) != 1 {
		t.Errorf("days = %v, want 1", body["days"])
	}

	_, day := doJSON(t, "GET", ts2.URL+"/api/days/"+today, nil)
	if day["dayScore"].(float64) != 10 {
		t.Errorf("imported dayScore = %v, want 10", day["dayScore"])
	}

	resp, _ = doJSON(t, "POST", ts2.URL+"/api/backup/import", map[string]interface{}{
		"exportDate": "x", "data": []interface{}{},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid doc status = %d, want 400", resp.StatusCode)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, "GET", ts.URL+"/api/catalog", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catalog = %d", resp.StatusCode)
	}
	if body["regularGains"] == nil || body["weeklyGoals"] == nil {
		t.Errorf("catalog body = %v", body)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics = %d", resp.StatusCode)
	}
}
