//go:build unit

package commands_test

import (
	"context"
	"time"

	"toolrental/internal/domain/notification"
	"toolrental/internal/infra/db"
	"toolrental/internal/pkg/clock"
	"toolrental/internal/usecase/shared"
	"toolrental/tests/common/builder"
	sharedmock "toolrental/tests/mock/shared"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// txFixture wires a mocked unit of work whose Within runs the callback
// against one mocked transaction and records inbox and outbox writes.
type txFixture struct {
	suite.Suite
	ctx   context.Context
	ctrl  *gomock.Controller
	clock *clock.MockClock

	uow      *sharedmock.MockUnitOfWork
	tx       *sharedmock.MockTx
	reads    *sharedmock.MockCommandReads
	bookings *sharedmock.MockBookingRepository
	tools    *sharedmock.MockToolRepository
	idem     *sharedmock.MockIdempotencyRepository
	notifs   *sharedmock.MockNotificationRepository
	outbox   *sharedmock.MockOutboxRepository

	notices []*notification.Notification
	topics  []string
}

func (f *txFixture) SetupTest() {
	f.ctx = context.Background()
	f.ctrl = gomock.NewController(f.T())
	f.clock = clock.NewMockClock(builder.FixedNow)

	f.uow = sharedmock.NewMockUnitOfWork(f.ctrl)
	f.tx = sharedmock.NewMockTx(f.ctrl)
	f.reads = sharedmock.NewMockCommandReads(f.ctrl)
	f.bookings = sharedmock.NewMockBookingRepository(f.ctrl)
	f.tools = sharedmock.NewMockToolRepository(f.ctrl)
	f.idem = sharedmock.NewMockIdempotencyRepository(f.ctrl)
	f.notifs = sharedmock.NewMockNotificationRepository(f.ctrl)
	f.outbox = sharedmock.NewMockOutboxRepository(f.ctrl)
	f.notices = nil
	f.topics = nil

	f.uow.EXPECT().Within(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, shared.Tx) error) error {
			return fn(ctx, f.tx)
		},
	).AnyTimes()

	f.tx.EXPECT().DB().Return(nil).AnyTimes()
	f.tx.EXPECT().Reads().Return(f.reads).AnyTimes()
	f.tx.EXPECT().Bookings().Return(f.bookings).AnyTimes()
	f.tx.EXPECT().Tools().Return(f.tools).AnyTimes()
	f.tx.EXPECT().Idempotency().Return(f.idem).AnyTimes()
	f.tx.EXPECT().Notifications().Return(f.notifs).AnyTimes()
	f.tx.EXPECT().Outbox().Return(f.outbox).AnyTimes()

	f.notifs.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ db.DBTX, n *notification.Notification) error {
			f.notices = append(f.notices, n)
			return nil
		},
	).AnyTimes()
	f.outbox.EXPECT().Enqueue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ db.DBTX, _, topic string, _ []byte, _ time.Time) error {
			f.topics = append(f.topics, topic)
			return nil
		},
	).AnyTimes()
}

func (f *txFixture) expectTool(bb *builder.BookingBuilder) {
	f.reads.EXPECT().ToolByID(gomock.Any(), bb.ToolID).Return(bb.BuildToolSnapshot(), nil).AnyTimes()
}

func (f *txFixture) expectStored(bb *builder.BookingBuilder) {
	f.bookings.EXPECT().Get(gomock.Any(), gomock.Any(), bb.ID).Return(bb.BuildStored(), nil)
}

func (f *txFixture) noticeTitles() map[string]string {
	out := make(map[string]string, len(f.notices))
	for _, n := range f.notices {
		out[n.UserID().String()] = n.Title()
	}
	return out
}
