package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-sync/internal/mocks"
	"chat-sync/internal/models"
)

func sampleRooms() []models.Room {
	return []models.Room{
		{
			ID:          "r1",
			Label:       "Landing page revamp",
			Mentor:      models.Participant{ID: "m1", Name: "Vera Adeyemi", Role: models.RoleMentor},
			Learner:     models.Participant{ID: "l1", Name: "Tunde Okafor", Role: models.RoleLearner},
			Status:      models.RoomOpen,
			UnreadCount: 2,
		},
		{
			ID:          "r2",
			Label:       "API onboarding",
			Mentor:      models.Participant{ID: "m1", Name: "Vera Adeyemi", Role: models.RoleMentor},
			Learner:     models.Participant{ID: "l2", Name: "Grace Bello", Role: models.RoleLearner},
			Status:      models.RoomClosed,
			UnreadCount: 3,
		},
	}
}

func TestRefreshReplacesCache(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleMentor)

	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))
	require.Len(t, d.Rooms(), 2)

	client.On("ListRooms", mock.Anything).Return([]models.Room{sampleRooms()[0]}, nil).Once()
	require.NoError(t, d.Refresh(context.Background()))
	assert.Len(t, d.Rooms(), 1)
	client.AssertExpectations(t)
}

func TestRefreshErrorKeepsCache(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleMentor)

	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))

	client.On("ListRooms", mock.Anything).Return(nil, errors.New("server unavailable")).Once()
	require.Error(t, d.Refresh(context.Background()))
	assert.Len(t, d.Rooms(), 2)
}

func TestFilterMatchesCounterpartName(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleMentor)
	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))

	// Mentor view filters on learner names.
	got := d.Filter("grace")
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)

	// The viewer's own name never matches.
	assert.Empty(t, d.Filter("vera"))
}

func TestFilterMatchesLabel(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleLearner)
	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))

	got := d.Filter("LANDING")
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleMentor)
	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))

	assert.Len(t, d.Filter("   "), 2)
}

func TestTotalUnread(t *testing.T) {
	client := new(mocks.ClientMock)
	d := New(client, models.RoleMentor)

	assert.Zero(t, d.TotalUnread())

	client.On("ListRooms", mock.Anything).Return(sampleRooms(), nil).Once()
	require.NoError(t, d.Refresh(context.Background()))
	assert.Equal(t, 5, d.TotalUnread())
}
