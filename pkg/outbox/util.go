package outbox

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func uuidZero() uuid.UUID {
	return uuid.UUID{}
}

func logrusNop() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
