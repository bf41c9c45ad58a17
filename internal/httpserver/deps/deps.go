package deps

import (
	"time"

	"github.com/yewfence/blogctl/internal/editing"
	"github.com/yewfence/blogctl/internal/logger"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now
	Session   *editing.Session // the live editing session this server views
}
