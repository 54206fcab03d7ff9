//go:build unit

package commands_test

import (
	"testing"

	"toolrental/internal/domain/user"
	"toolrental/internal/infra"
	"toolrental/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type NotificationCommandsTestSuite struct {
	txFixture
	uc    commands.NotificationCommands
	actor commands.Actor
}

func (s *NotificationCommandsTestSuite) SetupTest() {
	s.txFixture.SetupTest()
	s.uc = commands.NewNotificationUseCase(s.uow)
	s.actor = commands.Actor{UserID: uuid.New(), Role: user.RoleRenter}
}

func (s *NotificationCommandsTestSuite) TestMarkRead() {
	id := uuid.New()
	s.notifs.EXPECT().MarkRead(gomock.Any(), gomock.Any(), id, s.actor.UserID).Return(nil)
	s.NoError(s.uc.MarkRead(s.ctx, id, s.actor))

	other := uuid.New()
	s.notifs.EXPECT().MarkRead(gomock.Any(), gomock.Any(), other, s.actor.UserID).
		Return(infra.WrapRepoErr("notification not found", nil, infra.KindNotFound))
	s.ErrorIs(s.uc.MarkRead(s.ctx, other, s.actor), commands.ErrNotificationNotFound)
}

func (s *NotificationCommandsTestSuite) TestMarkAllRead() {
	s.notifs.EXPECT().MarkAllRead(gomock.Any(), gomock.Any(), s.actor.UserID).Return(int64(4), nil)

	n, err := s.uc.MarkAllRead(s.ctx, s.actor)
	s.Require().NoError(err)
	s.Equal(int64(4), n)
}

func TestNotificationCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationCommandsTestSuite))
}
