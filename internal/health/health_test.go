package health

import (
	"net/http/httptest"
	"testing"
)

type fakeChecker struct {
	db    bool
	sched bool
	jobs  int
}

func (f fakeChecker) DBHealthy() bool        { return f.db }
func (f fakeChecker) SchedulerRunning() bool { return f.sched }
func (f fakeChecker) Jobs() int              { return f.jobs }

func probe(t *testing.T, c fakeChecker) (*Status, error) {
	t.Helper()
	s := NewServer(":0", c)
	ts := httptest.NewServer(s.srv.Handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL).Check()
}

func TestHealthy(t *testing.T) {
	st, err := probe(t, fakeChecker{db: true, sched: true, jobs: 3})
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != "ok" || !st.DBOk || !st.Scheduler || st.Jobs != 3 {
		t.Errorf("status = %+v", st)
	}
}

func TestDegraded(t *testing.T) {
	for name, c := range map[string]fakeChecker{
		"db down":        {db: false, sched: true},
		"scheduler down": {db: true, sched: false},
	} {
		t.Run(name, func(t *testing.T) {
			st, err := probe(t, c)
			if err == nil {
				t.Fatal("degraded state reported healthy")
			}
			if st == nil || st.Status != "degraded" {
				t.Errorf("status = %+v", st)
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	// Nothing listens here
	if _, err := NewClient("http://127.0.0.1:1").Check(); err == nil {
		t.Error("probe of dead endpoint succeeded")
	}
}
