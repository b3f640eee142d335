package engine

import (
	"time"
)

// Outcome is the terminal state of a run or kind.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Step names a stage of the outages_check state machine.
type Step string

const (
	StepFetch             Step = "fetch"
	StepParse             Step = "parse"
	StepDedupAndStore     Step = "dedup_and_store"
	StepCollectUnnotified Step = "collect_unnotified"
	StepResolveGroups     Step = "resolve_groups"
	StepDispatch          Step = "dispatch"
	StepMarkNotified      Step = "mark_notified"
	StepRecordHistory     Step = "record_history"
	StepUpdateLastRun     Step = "update_last_run"
)

// Report summarises one ExecuteTask call.
type Report struct {
	RunID    string        `json:"run_id"`
	TaskID   int64         `json:"task_id"`
	Outcome  Outcome       `json:"outcome"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Kinds    []KindReport  `json:"kinds"`
	Unknown  []string      `json:"unknown_kinds,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// KindReport summarises one task kind within a run.
type KindReport struct {
	Kind    string  `json:"kind"`
	Outcome Outcome `json:"outcome"`
	// FailedStep is set when Outcome is failed.
	FailedStep Step   `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`

	Parsed    int `json:"parsed"`
	New       int `json:"new"`
	Existing  int `json:"existing"`
	Pending   int `json:"pending"`
	Groups    int `json:"groups"`
	Messages  int `json:"messages"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Notified  int `json:"notified"`
	Recorded  int `json:"recorded"`
	Published int `json:"published"`
}

// StepError attaches the failing step to a run-fatal error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return string(e.Step) + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }
