package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// testJob is a minimal Job for pool tests.
type testJob struct {
	userID   string
	execFunc func(ctx context.Context) error
	runs     *atomic.Int64
}

func (j *testJob) Execute(ctx context.Context) error {
	if j.runs != nil {
		j.runs.Add(1)
	}
	if j.execFunc != nil {
		return j.execFunc(ctx)
	}
	return nil
}

func (j *testJob) UserID() string      { return j.userID }
func (j *testJob) Description() string { return "test job" }

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{name: "Valid", input: "05:00", want: ScheduleTime{Hour: 5, Minute: 0}},
		{name: "Evening", input: "23:59", want: ScheduleTime{Hour: 23, Minute: 59}},
		{name: "HourTooLarge", input: "24:00", wantErr: true},
		{name: "MinuteTooLarge", input: "12:60", wantErr: true},
		{name: "Negative", input: "-1:30", wantErr: true},
		{name: "Garbage", input: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseScheduleTime(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScheduleTime(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseScheduleTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{ScheduleTimes: []string{"25:00"}})
	if err == nil {
		t.Error("New() with invalid schedule time expected error, got nil")
	}

	_, err = New(Config{ScheduleTimes: nil})
	if err == nil {
		t.Error("New() with no schedule times expected error, got nil")
	}
}

func TestScheduler_ShouldRunOncePerMinute(t *testing.T) {
	s, err := New(Config{ScheduleTimes: []string{"05:00"}, WorkerCount: 1, QueueSize: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	at := time.Date(2024, 1, 15, 5, 0, 30, 0, time.UTC)
	if !s.shouldRun(at) {
		t.Error("shouldRun() = false at a scheduled minute")
	}
	// Same minute, later tick: already fired.
	if s.shouldRun(at.Add(20 * time.Second)) {
		t.Error("shouldRun() = true twice within the same minute")
	}
	// Next day, same time: fires again.
	if !s.shouldRun(at.AddDate(0, 0, 1)) {
		t.Error("shouldRun() = false on the next day's scheduled minute")
	}
	// Unscheduled minute.
	if s.shouldRun(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)) {
		t.Error("shouldRun() = true at an unscheduled minute")
	}
}

func TestWorkerPool_ExecutesJobs(t *testing.T) {
	pool := NewWorkerPool(2, 0, 10)
	pool.Start()

	var runs atomic.Int64
	for i := 0; i < 5; i++ {
		if err := pool.Submit(&testJob{userID: "user-1", runs: &runs}); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
	}

	pool.Shutdown(5 * time.Second)

	if got := runs.Load(); got != 5 {
		t.Errorf("executed %d jobs, want 5", got)
	}
}

func TestWorkerPool_FullQueueDropsJob(t *testing.T) {
	// No workers started: the queue fills and stays full.
	pool := NewWorkerPool(1, 0, 1)

	if err := pool.Submit(&testJob{userID: "user-1"}); err != nil {
		t.Fatalf("first Submit() failed: %v", err)
	}
	if err := pool.Submit(&testJob{userID: "user-2"}); err == nil {
		t.Error("Submit() to a full queue expected error, got nil")
	}
}
