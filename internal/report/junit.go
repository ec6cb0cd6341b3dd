// Package report ingests test reports and normalizes them into test run
// records. JUnit XML is the supported interchange format; most runners
// (go test via gotestsum, pytest, jest, maven) can emit it.
package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// junitSuites is the root <testsuites> element. Some emitters write a bare
// <testsuite> root instead; ParseJUnit handles both.
type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	XMLName xml.Name `xml:"testsuite"`

	Name  string      `xml:"name,attr"`
	File  string      `xml:"file,attr"`
	Cases []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	File      string        `xml:"file,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure"`
	Error     *junitFailure `xml:"error"`
	Skipped   *struct{}     `xml:"skipped"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// ParseJUnit reads a JUnit XML report and returns one TestRunRecord per
// test case. The commit hash is attached to every record; timestamp is the
// ingestion time.
func ParseJUnit(r io.Reader, commitHash string) ([]models.TestRunRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	suites, err := unmarshalSuites(data)
	if err != nil {
		return nil, fmt.Errorf("parsing report: %s: %w", err, engine.ErrInputMalformed)
	}

	now := time.Now().UTC()
	var records []models.TestRunRecord
	for _, suite := range suites {
		for _, tc := range suite.Cases {
			rec := models.TestRunRecord{
				ID:        uuid.NewString(),
				Timestamp: now,
				TestFile:  testFile(suite, tc),
				TestName:  tc.Name,
				Status:    caseStatus(tc),
				Duration:  time.Duration(tc.Time * float64(time.Second)),
			}
			rec.CommitHash = commitHash
			failure := tc.Failure
			if failure == nil {
				failure = tc.Error
			}
			if failure != nil {
				rec.ErrorMessage = failure.Message
				rec.StackTrace = strings.TrimSpace(failure.Body)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// ParseJUnitFile is ParseJUnit over a file path.
func ParseJUnitFile(path, commitHash string) ([]models.TestRunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report %s: %w", path, err)
	}
	defer f.Close()
	return ParseJUnit(f, commitHash)
}

func unmarshalSuites(data []byte) ([]junitSuite, error) {
	var root junitSuites
	if err := xml.Unmarshal(data, &root); err == nil {
		return root.Suites, nil
	}

	var single junitSuite
	if err := xml.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []junitSuite{single}, nil
}

// testFile picks the best available file attribution: case file, suite
// file, then classname as a last resort.
func testFile(suite junitSuite, tc junitCase) string {
	if tc.File != "" {
		return tc.File
	}
	if suite.File != "" {
		return suite.File
	}
	if tc.ClassName != "" {
		return tc.ClassName
	}
	return suite.Name
}

func caseStatus(tc junitCase) models.TestStatus {
	switch {
	case tc.Skipped != nil:
		return models.TestSkip
	case tc.Failure != nil || tc.Error != nil:
		return models.TestFail
	default:
		return models.TestPass
	}
}
