package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivstasov/salonik/internal/model"
	"github.com/ivstasov/salonik/internal/store"
	"github.com/ivstasov/salonik/tests/testutil"
)

func seedAccount(t *testing.T, s *store.SQLiteStore) model.EmailAccount {
	t.Helper()

	acct := model.EmailAccount{
		Label:    "Work mailbox",
		Host:     "imap.example.com",
		Port:     993,
		Username: "owner@example.com",
		Secret:   "s3cret",
	}
	require.NoError(t, s.CreateAccount(context.Background(), acct))

	accts, err := s.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accts, 1)
	return accts[0]
}

func inboxMessage(accountID, uid string) model.Message {
	return model.Message{
		AccountID:   accountID,
		Folder:      model.FolderInbox,
		Direction:   model.DirectionInbound,
		ExternalKey: model.ExternalKey(model.FolderInbox, uid),
		FromAddr:    "client@example.org",
		ToAddr:      "owner@example.com",
		Subject:     "booking request",
		Size:        2048,
		SentAt:      time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
		FetchedAt:   time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	acct := seedAccount(t, s)
	assert.NotEmpty(t, acct.ID)
	assert.Nil(t, acct.LastSyncAt)

	acct.Label = "Renamed mailbox"
	acct.Port = 1993
	require.NoError(t, s.UpdateAccount(ctx, acct))

	got, err := s.GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed mailbox", got.Label)
	assert.Equal(t, 1993, got.Port)

	syncedAt := time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpdateAccountSyncTime(ctx, acct.ID, syncedAt))

	got, err = s.GetAccountByID(ctx, acct.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, got.LastSyncAt.Equal(syncedAt))
}

func TestCreateAccountValidation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	err := s.CreateAccount(ctx, model.EmailAccount{Username: "u@example.com"})
	assert.ErrorContains(t, err, "host")

	err = s.CreateAccount(ctx, model.EmailAccount{Host: "imap.example.com"})
	assert.ErrorContains(t, err, "username")
}

func TestContactEmailIndex(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, model.Contact{Name: "Anna", Email: "Anna@Example.COM"}))
	require.NoError(t, s.CreateContact(ctx, model.Contact{Name: "Boris", Email: "boris@example.com"}))
	require.NoError(t, s.CreateContact(ctx, model.Contact{Name: "No mail", Phone: "+7 900 000 00 00"}))

	contacts, err := s.ListContacts(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 3)

	idx, err := s.ContactEmailIndex(ctx)
	require.NoError(t, err)
	assert.Len(t, idx, 2)
	assert.Contains(t, idx, "anna@example.com")
	assert.Contains(t, idx, "boris@example.com")
}

func TestInsertMessagesAndKeys(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	acct := seedAccount(t, s)

	has, err := s.HasMessages(ctx, acct.ID, model.FolderInbox)
	require.NoError(t, err)
	assert.False(t, has)

	batch := []model.Message{
		inboxMessage(acct.ID, "100"),
		inboxMessage(acct.ID, "101"),
	}
	require.NoError(t, s.InsertMessages(ctx, batch))

	keys, err := s.MessageKeys(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "inbox:100")
	assert.Contains(t, keys, "inbox:101")

	has, err = s.HasMessages(ctx, acct.ID, model.FolderInbox)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasMessages(ctx, acct.ID, model.FolderSent)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestInsertMessagesDuplicateKeyFailsBatch(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	acct := seedAccount(t, s)

	require.NoError(t, s.InsertMessages(ctx, []model.Message{inboxMessage(acct.ID, "100")}))

	// The duplicate rolls back the whole batch, UID 200 included.
	err := s.InsertMessages(ctx, []model.Message{
		inboxMessage(acct.ID, "200"),
		inboxMessage(acct.ID, "100"),
	})
	require.Error(t, err)

	keys, err := s.MessageKeys(ctx, acct.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestGetMessagesFiltering(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	acct := seedAccount(t, s)

	require.NoError(t, s.CreateContact(ctx, model.Contact{ID: "c-1", Name: "Anna", Email: "anna@example.com"}))

	in := inboxMessage(acct.ID, "1")
	in.FromAddr = "anna@example.com"
	in.Subject = "стрижка в пятницу"
	contactID := "c-1"
	in.ContactID = &contactID

	out := model.Message{
		AccountID:   acct.ID,
		Folder:      model.FolderSent,
		Direction:   model.DirectionOutbound,
		ExternalKey: model.ExternalKey(model.FolderSent, "1"),
		FromAddr:    "owner@example.com",
		ToAddr:      "anna@example.com",
		Subject:     "confirmation",
		Size:        512,
		SentAt:      time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC),
		FetchedAt:   time.Date(2024, time.March, 3, 9, 5, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertMessages(ctx, []model.Message{in, out}))

	all, err := s.GetMessages(ctx, acct.ID, store.MessageFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	sent := model.FolderSent
	got, err := s.GetMessages(ctx, acct.ID, store.MessageFilter{Folder: &sent})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.DirectionOutbound, got[0].Direction)

	got, err = s.GetMessages(ctx, acct.ID, store.MessageFilter{ContactID: &contactID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "anna@example.com", got[0].FromAddr)

	q := "стрижка"
	got, err = s.GetMessages(ctx, acct.ID, store.MessageFilter{Query: &q})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inbox:1", got[0].ExternalKey)

	// Newest first with sent_at descending.
	got, err = s.GetMessages(ctx, acct.ID, store.MessageFilter{SortDesc: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sent:1", got[0].ExternalKey)

	got, err = s.GetMessages(ctx, acct.ID, store.MessageFilter{SortDesc: true, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inbox:1", got[0].ExternalKey)
}
