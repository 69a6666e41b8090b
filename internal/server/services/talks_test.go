package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetukhov/livetalks/internal/common"
	"github.com/dpetukhov/livetalks/internal/server/models"
)

func newTalkServiceForTest(t *testing.T, rm *fakeRepoManager) *TalkService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	return NewTalkService(db, rm)
}

func TestTalkCreate_Success(t *testing.T) {
	rm := newFakeRepoManager()
	event := rm.events.add(&models.Event{OrganizerID: "org1", Title: "GopherCon", IsPublished: true})
	s := newTalkServiceForTest(t, rm)

	start := time.Now().Add(time.Hour)
	talk, err := s.Create(context.Background(), event.ID, "sp1", "Schedulers", start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, models.TalkStatusPending, talk.Status)
	assert.Len(t, talk.StreamKey, streamKeyLength)
	assert.NotZero(t, talk.ID)
}

func TestTalkCreate_Validation(t *testing.T) {
	rm := newFakeRepoManager()
	event := rm.events.add(&models.Event{OrganizerID: "org1", Title: "GopherCon", IsPublished: true})
	s := newTalkServiceForTest(t, rm)

	now := time.Now()

	t.Run("empty title", func(t *testing.T) {
		_, err := s.Create(context.Background(), event.ID, "sp1", "", now, now.Add(time.Hour))
		requireSentinel(t, err, common.ErrorInvalidRequest)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := s.Create(context.Background(), event.ID, "sp1", "Talk", now.Add(time.Hour), now)
		requireSentinel(t, err, common.ErrorInvalidRequest)
	})

	t.Run("start equals end", func(t *testing.T) {
		_, err := s.Create(context.Background(), event.ID, "sp1", "Talk", now, now)
		requireSentinel(t, err, common.ErrorInvalidRequest)
	})
}

func TestTalkCreate_UnpublishedEventLooksMissing(t *testing.T) {
	rm := newFakeRepoManager()
	event := rm.events.add(&models.Event{OrganizerID: "org1", Title: "Draft"})
	s := newTalkServiceForTest(t, rm)

	now := time.Now()
	_, err := s.Create(context.Background(), event.ID, "sp1", "Talk", now, now.Add(time.Hour))
	requireSentinel(t, err, common.ErrorNotFound)
}

func TestTalkModeration(t *testing.T) {
	newModerationFixture := func(t *testing.T) (*TalkService, *fakeRepoManager, *models.Talk) {
		rm := newFakeRepoManager()
		event := rm.events.add(&models.Event{ID: "ev1", OrganizerID: "org1", IsPublished: true})
		talk := rm.streamableTalks().add(&models.Talk{
			EventID: event.ID, SpeakerID: "sp1", Title: "Talk",
			Status: models.TalkStatusPending, StreamKey: "k",
		})
		return newTalkServiceForTest(t, rm), rm, talk
	}

	t.Run("organizer approves", func(t *testing.T) {
		s, rm, talk := newModerationFixture(t)
		require.NoError(t, s.Approve(context.Background(), talk.ID, "org1"))

		stored, err := rm.streamableTalks().GetByID(context.Background(), talk.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TalkStatusApproved, stored.Status)
	})

	t.Run("organizer rejects", func(t *testing.T) {
		s, rm, talk := newModerationFixture(t)
		require.NoError(t, s.Reject(context.Background(), talk.ID, "org1"))

		stored, err := rm.streamableTalks().GetByID(context.Background(), talk.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TalkStatusRejected, stored.Status)
	})

	t.Run("speaker cannot moderate", func(t *testing.T) {
		s, _, talk := newModerationFixture(t)
		err := s.Approve(context.Background(), talk.ID, "sp1")
		requireSentinel(t, err, common.ErrorForbidden)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		s, _, talk := newModerationFixture(t)
		require.NoError(t, s.Approve(context.Background(), talk.ID, "org1"))

		err := s.Reject(context.Background(), talk.ID, "org1")
		requireSentinel(t, err, common.ErrorForbidden)
		assert.Contains(t, err.Error(), "already approved")
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		s, _, talk := newModerationFixture(t)
		require.NoError(t, s.Reject(context.Background(), talk.ID, "org1"))

		err := s.Approve(context.Background(), talk.ID, "org1")
		requireSentinel(t, err, common.ErrorForbidden)
	})

	t.Run("unknown talk", func(t *testing.T) {
		s, _, _ := newModerationFixture(t)
		err := s.Approve(context.Background(), 99, "org1")
		requireSentinel(t, err, common.ErrorNotFound)
	})
}

func TestGetStreamKey_SpeakerOnly(t *testing.T) {
	rm := newFakeRepoManager()
	rm.events.add(&models.Event{ID: "ev1", OrganizerID: "org1", IsPublished: true})
	talk := rm.streamableTalks().add(&models.Talk{
		EventID: "ev1", SpeakerID: "sp1", Title: "Talk",
		Status: models.TalkStatusPending, StreamKey: "super-secret",
	})
	s := newTalkServiceForTest(t, rm)

	key, err := s.GetStreamKey(context.Background(), talk.ID, "sp1")
	require.NoError(t, err)
	assert.Equal(t, "super-secret", key)

	_, err = s.GetStreamKey(context.Background(), talk.ID, "org1")
	requireSentinel(t, err, common.ErrorForbidden)
}

func TestListBySpeaker(t *testing.T) {
	rm := newFakeRepoManager()
	rm.streamableTalks().add(&models.Talk{EventID: "ev1", SpeakerID: "sp1", Title: "A"})
	rm.streamableTalks().add(&models.Talk{EventID: "ev1", SpeakerID: "sp2", Title: "B"})
	rm.streamableTalks().add(&models.Talk{EventID: "ev1", SpeakerID: "sp1", Title: "C"})
	s := newTalkServiceForTest(t, rm)

	talks, err := s.ListBySpeaker(context.Background(), "sp1")
	require.NoError(t, err)
	assert.Len(t, talks, 2)
}
