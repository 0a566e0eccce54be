package ports

import (
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// StoreListener is notified by the store after every state change it makes
type StoreListener interface {
	// InitTestList asks for the whole list to be rebuilt
	InitTestList()

	// UpdateTestResult is called when a record's result changed
	UpdateTestResult(rec *domain.TestRecord)

	// UpdateTestLine is called when a record's run state changed
	UpdateTestLine(rec *domain.TestRecord)

	// FocusTest asks for the record's row to be focused
	FocusTest(rec *domain.TestRecord)

	// ShowStartupError reports a framework level failure
	ShowStartupError(title, body string)
}
