package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/eventdesk/eventdesk/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("EVENTDESK_TEST_MODE", "1")
		// InTestMode caches its first read; force a re-read in case
		// something already consulted it before this package loaded.
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
