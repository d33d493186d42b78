package peer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestCandidateQueueHoldsUntilFlush(t *testing.T) {
	log, _ := test.NewNullLogger()
	var sent []string
	q := newCandidateQueue(func(p json.RawMessage) error {
		sent = append(sent, string(p))
		return nil
	}, log)

	q.push(json.RawMessage(`"a"`))
	q.push(json.RawMessage(`"b"`))
	assert.Empty(t, sent)

	q.flush()
	assert.Equal(t, []string{`"a"`, `"b"`}, sent)

	q.push(json.RawMessage(`"c"`))
	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`}, sent)
}

func TestCandidateQueueIgnoresEndOfGathering(t *testing.T) {
	log, _ := test.NewNullLogger()
	calls := 0
	q := newCandidateQueue(func(json.RawMessage) error { calls++; return nil }, log)
	q.flush()
	q.onCandidate(nil)
	assert.Zero(t, calls)
}

func TestCandidateQueueSendErrorIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	q := newCandidateQueue(func(json.RawMessage) error { return errors.New("socket gone") }, log)
	q.flush()
	q.push(json.RawMessage(`"x"`))

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, "send ICE candidate", entry.Message)
	}
}
