package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
	"Marketplace/internal/testutil"
)

func TestSendValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	alice := testutil.CreateUser(t, db, "Alice", models.RoleBuyer)
	ctx := context.Background()

	cases := map[string]struct {
		in    services.SendMessageInput
		field string
	}{
		"missing receiver": {services.SendMessageInput{Message: "hi"}, "receiver_id"},
		"unknown receiver": {services.SendMessageInput{ReceiverID: 9999, Message: "hi"}, "receiver_id"},
		"self":             {services.SendMessageInput{ReceiverID: alice.ID, Message: "hi"}, "receiver_id"},
		"blank message":    {services.SendMessageInput{ReceiverID: 9999, Message: "   "}, "message"},
		"too long":         {services.SendMessageInput{ReceiverID: 9999, Message: strings.Repeat("x", 5001)}, "message"},
		"unknown listing":  {services.SendMessageInput{ReceiverID: 9999, Message: "hi", ListingID: ptr(uint(42))}, "listing_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Send(ctx, alice.ID, tc.in)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSendAcceptsMaxLengthAndListing(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	buyer := testutil.CreateUser(t, db, "Buyer", models.RoleBuyer)
	seller := testutil.CreateUser(t, db, "Seller", models.RoleSeller)
	listing := testutil.CreateListing(t, db, seller, nil)

	msg, err := svc.Send(context.Background(), buyer.ID, services.SendMessageInput{
		ReceiverID: seller.ID,
		Message:    strings.Repeat("é", 5000),
		ListingID:  &listing.ID,
	})
	require.NoError(t, err)
	assert.False(t, msg.Read)
	assert.Equal(t, buyer.ID, msg.Sender.ID)
	assert.Equal(t, "Buyer", msg.Sender.Name)
	require.NotNil(t, msg.ListingID)
	assert.Equal(t, listing.ID, *msg.ListingID)
}

func TestDashboardShowsNewConversationToSeller(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	buyer := testutil.CreateUser(t, db, "Buyer", models.RoleBuyer)
	seller := testutil.CreateUser(t, db, "Seller", models.RoleSeller)
	ctx := context.Background()

	_, err := svc.Send(ctx, buyer.ID, services.SendMessageInput{ReceiverID: seller.ID, Message: "Is this available?"})
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	assert.Equal(t, buyer.ID, dash[0].User.ID)
	assert.Equal(t, "Is this available?", dash[0].LastMessage)
	assert.Equal(t, 1, dash[0].UnreadCount)
	assert.False(t, dash[0].LastMessageMine)
	assert.False(t, dash[0].LastMessageRead)

	// the sender sees the same conversation without unread messages
	dash, err = svc.Dashboard(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	assert.Equal(t, seller.ID, dash[0].User.ID)
	assert.Zero(t, dash[0].UnreadCount)
	assert.True(t, dash[0].LastMessageMine)
}

func TestDashboardUnreadCountsOnlyIncomingMessages(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	a := testutil.CreateUser(t, db, "A", models.RoleBuyer)
	b := testutil.CreateUser(t, db, "B", models.RoleSeller)
	c := testutil.CreateUser(t, db, "C", models.RoleSeller)
	ctx := context.Background()

	send := func(from, to models.User, text string) {
		_, err := svc.Send(ctx, from.ID, services.SendMessageInput{ReceiverID: to.ID, Message: text})
		require.NoError(t, err)
	}
	send(a, b, "one")
	send(a, b, "two")
	send(b, a, "reply 1")
	send(b, a, "reply 2")
	send(c, a, "hello from c")
	send(a, b, "three")

	dash, err := svc.Dashboard(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, dash, 2)

	// B's group was touched last
	assert.Equal(t, b.ID, dash[0].User.ID)
	assert.Equal(t, "three", dash[0].LastMessage)
	assert.True(t, dash[0].LastMessageMine)
	assert.Equal(t, 2, dash[0].UnreadCount)

	assert.Equal(t, c.ID, dash[1].User.ID)
	assert.Equal(t, 1, dash[1].UnreadCount)

	dashB, err := svc.Dashboard(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, dashB, 1)
	assert.Equal(t, 3, dashB[0].UnreadCount)

	send(a, b, "four")
	dash, err = svc.Dashboard(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dash[0].UnreadCount)
}

func TestDashboardGroupsLegacySelfMessages(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	a := testutil.CreateUser(t, db, "A", models.RoleBuyer)
	require.NoError(t, db.Create(&models.Message{SenderID: a.ID, ReceiverID: a.ID, Message: "note to self"}).Error)

	dash, err := svc.Dashboard(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, dash, 1)
	assert.Equal(t, a.ID, dash[0].User.ID)
	assert.True(t, dash[0].LastMessageMine)
	assert.Equal(t, 0, dash[0].UnreadCount)
}

func TestConversationMarksReadOnce(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	a := testutil.CreateUser(t, db, "A", models.RoleBuyer)
	b := testutil.CreateUser(t, db, "B", models.RoleSeller)
	c := testutil.CreateUser(t, db, "C", models.RoleSeller)
	ctx := context.Background()

	for _, m := range []struct {
		from, to models.User
		text     string
	}{
		{a, b, "hi"}, {b, a, "hello"}, {b, a, "still there?"}, {c, a, "other thread"},
	} {
		_, err := svc.Send(ctx, m.from.ID, services.SendMessageInput{ReceiverID: m.to.ID, Message: m.text})
		require.NoError(t, err)
	}

	first, err := svc.Conversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, first.Messages, 3)
	assert.EqualValues(t, 2, first.MarkedRead)
	assert.Equal(t, "hi", first.Messages[0].Message.Message)
	assert.Equal(t, "still there?", first.Messages[2].Message.Message)
	assert.Equal(t, b.ID, first.User.ID)
	for _, m := range first.Messages[1:] {
		assert.True(t, m.Read)
	}

	second, err := svc.Conversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, second.Messages, 3)
	assert.Zero(t, second.MarkedRead)

	// A→B message stays unread for B, C's message untouched
	var unread []models.Message
	require.NoError(t, db.Where("read = ?", false).Order("id").Find(&unread).Error)
	require.Len(t, unread, 2)
	assert.Equal(t, "hi", unread[0].Message)
	assert.Equal(t, "other thread", unread[1].Message)

	dash, err := svc.Dashboard(ctx, a.ID)
	require.NoError(t, err)
	for _, row := range dash {
		if row.User.ID == b.ID {
			assert.Zero(t, row.UnreadCount)
		}
	}
}

func TestConversationUnknownUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewMessageService(db)
	a := testutil.CreateUser(t, db, "A", models.RoleBuyer)

	_, err := svc.Conversation(context.Background(), a.ID, 9999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
