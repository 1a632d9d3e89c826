package clipboard

import (
	"errors"
	"testing"
)

// TestSystemClipboardCopy verifies delegation and error wrapping.
func TestSystemClipboardCopy(testingInstance *testing.T) {
	writeFailure := errors.New("xclip missing")
	testCases := []struct {
		testName      string
		unsupported   bool
		writeError    error
		expectWritten string
		expectError   bool
	}{
		{testName: "copies text", expectWritten: "document"},
		{testName: "unsupported platform", unsupported: true, expectError: true},
		{testName: "write failure", writeError: writeFailure, expectWritten: "document", expectError: true},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(testingInstance *testing.T) {
			written := ""
			systemClipboard := &SystemClipboard{
				unsupported: testCase.unsupported,
				writeAll: func(text string) error {
					written = text
					return testCase.writeError
				},
			}
			copyError := systemClipboard.Copy("document")
			if written != testCase.expectWritten {
				testingInstance.Fatalf("written %q, expected %q", written, testCase.expectWritten)
			}
			if !testCase.expectError {
				if copyError != nil {
					testingInstance.Fatalf("unexpected error: %v", copyError)
				}
				return
			}
			if !errors.Is(copyError, ErrUnavailable) {
				testingInstance.Fatalf("expected ErrUnavailable, got %v", copyError)
			}
			if testCase.writeError != nil && !errors.Is(copyError, testCase.writeError) {
				testingInstance.Fatalf("expected wrapped write error, got %v", copyError)
			}
		})
	}
}
