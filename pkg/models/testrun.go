package models

import "time"

// TestStatus is the outcome of a single test execution.
type TestStatus string

const (
	TestPass TestStatus = "pass"
	TestFail TestStatus = "fail"
	TestSkip TestStatus = "skip"
)

// TestRunRecord is one test execution outcome, mapped from a structured
// test report (JUnit XML or anything with the same fields).
type TestRunRecord struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	TestFile      string        `json:"test_file"`
	TestName      string        `json:"test_name"`
	Status        TestStatus    `json:"status"`
	Duration      time.Duration `json:"duration"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	StackTrace    string        `json:"stack_trace,omitempty"`
	CommitHash    string        `json:"commit_hash,omitempty"`
	RelatedChunks []string      `json:"related_chunks,omitempty"`
	Interactions  []string      `json:"interactions,omitempty"`
}

// Identity returns the test identity key (file + name) that the transition
// detector tracks state for.
func (r TestRunRecord) Identity() string {
	return r.TestFile + "::" + r.TestName
}
