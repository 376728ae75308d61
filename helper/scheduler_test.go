package helper

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"zipline_manager/config"
	"zipline_manager/constants"
	"zipline_manager/database"
	"zipline_manager/model"
	"zipline_manager/utils"
	"zipline_manager/utils/mocks"
)

// useServices points the package services at test doubles for one test.
func useServices(t *testing.T, clock clockwork.Clock, payments utils.PaymentProvider) *[]*gomail.Message {
	t.Helper()
	seasons, err := config.LoadSeasons("")
	require.NoError(t, err)

	docs := database.NewMemoryStore()
	sent := &[]*gomail.Message{}

	prevSettings, prevTickets, prevClosures, prevSchedule := Settings, Tickets, Closures, Schedule
	prevFulfiller, prevPayments, prevMailer, prevArchive := Fulfiller, Payments, Mailer, Archive
	t.Cleanup(func() {
		Settings, Tickets, Closures, Schedule = prevSettings, prevTickets, prevClosures, prevSchedule
		Fulfiller, Payments, Mailer, Archive = prevFulfiller, prevPayments, prevMailer, prevArchive
	})

	Settings = &config.AppConfig{AdminEmail: "admin@example.com", AppURL: "https://zipline.example.com", SupportPhone: "04 79 00 00 00"}
	Schedule = NewCalendar(seasons)
	Tickets = newTestTicketStore(docs, clock)
	Closures = NewClosureStore(docs, closuresPath)
	Payments = payments
	Fulfiller = NewFulfillment(payments, Tickets)
	Mailer = utils.NewMailerWithSender("billetterie@example.com", func(m ...*gomail.Message) error {
		*sent = append(*sent, m...)
		return nil
	})
	Archive = nil

	return sent
}

func TestSendDailyDigest(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 12, 20, 19, 0, 0, 0, time.UTC))
	sent := useServices(t, clock, mocks.NewPaymentProvider(t))
	ctx := context.Background()

	_, err := Tickets.CreateTicketsBatch(ctx, []model.TicketDraft{winterDraft("cs_1"), winterDraft("cs_1")})
	require.NoError(t, err)

	require.NoError(t, SendDailyDigest(ctx))
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"admin@example.com"}, (*sent)[0].GetHeader("To"))
	assert.Equal(t, []string{"Bilan billetterie du 20/12/2026"}, (*sent)[0].GetHeader("Subject"))
}

func TestSendDailyDigest_NoRecipient(t *testing.T) {
	sent := useServices(t, clockwork.NewFakeClock(), mocks.NewPaymentProvider(t))
	Settings.AdminEmail = ""

	require.NoError(t, SendDailyDigest(context.Background()))
	assert.Empty(t, *sent)
}

func TestDescribeDay(t *testing.T) {
	hours := "9h30 - 16h30"
	assert.Equal(t, "ouvert (9h30 - 16h30)", describeDay(constants.DAY_OPEN, &hours))
	assert.Equal(t, "fermeture exceptionnelle", describeDay(constants.DAY_EXCEPTIONALLY_CLOSED, nil))
	assert.Equal(t, "fermé (hors saison)", describeDay(constants.DAY_CLOSED, nil))
}

func TestReconcilePaidSessions(t *testing.T) {
	payments := mocks.NewPaymentProvider(t)
	sent := useServices(t, clockwork.NewFakeClock(), payments)
	ctx := context.Background()
	since := time.Date(2026, 12, 19, 0, 0, 0, 0, time.UTC)

	_, err := Tickets.CreateTicket(ctx, winterDraft("cs_done"))
	require.NoError(t, err)

	payments.On("ListPaidSessions", mock.Anything, since).Return([]string{"cs_done", "cs_missed"}, nil)
	payments.On("GetSession", mock.Anything, "cs_done").Return(paidSession("cs_done",
		model.CheckoutLine{Season: constants.SEASON_WINTER, UnitPrice: 39, Quantity: 1},
	), nil)
	payments.On("GetSession", mock.Anything, "cs_missed").Return(paidSession("cs_missed",
		model.CheckoutLine{Season: constants.SEASON_WINTER, UnitPrice: 39, Quantity: 2},
	), nil)

	issued, err := ReconcilePaidSessions(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 2, issued)
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"lea@example.com"}, (*sent)[0].GetHeader("To"))

	missed, err := Tickets.GetTicketsBySession(ctx, "cs_missed")
	require.NoError(t, err)
	assert.Len(t, missed, 2)
}
