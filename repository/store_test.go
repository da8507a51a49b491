package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	store      *Store
	customer   models.Profile
	other      models.Profile
	technician models.Profile
	phone      models.DeviceType
}

func setupStore(t *testing.T) fixture {
	db := testutil.NewTestDB(t)
	return fixture{
		db:         db,
		store:      NewStore(db),
		customer:   testutil.CreateProfile(t, db, "customer", models.RoleCustomer),
		other:      testutil.CreateProfile(t, db, "other", models.RoleCustomer),
		technician: testutil.CreateProfile(t, db, "tech", models.RoleTechnician),
		phone:      testutil.CreateDeviceType(t, db, "Smartphone", "Mobile"),
	}
}

func TestInsertRequestForcesSubmitted(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	cost := 99.0
	request := models.RepairRequest{
		CustomerID:         f.customer.ID,
		TechnicianID:       &f.technician.ID,
		DeviceTypeID:       f.phone.ID,
		DeviceBrand:        "Samsung",
		ProblemDescription: "Battery drains fast",
		Status:             models.StatusCompleted,
		FinalCost:          &cost,
	}
	require.NoError(t, f.store.InsertRequest(ctx, &request))

	stored, err := f.store.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
	assert.Nil(t, stored.TechnicianID)
	assert.Nil(t, stored.FinalCost)
	assert.Equal(t, f.customer.Email, stored.Customer.Email)
	assert.Equal(t, "Smartphone", stored.DeviceType.Name)
	assert.NotEmpty(t, stored.TrackingCode)

	history, err := f.store.FetchHistory(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, models.StatusSubmitted, history[0].Status)
	assert.Equal(t, f.customer.ID, history[0].UpdatedBy)
}

func TestGetRequestNotFound(t *testing.T) {
	f := setupStore(t)

	_, err := f.store.GetRequest(context.Background(), "missing")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestFetchRequestsScopesAndOrders(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	first := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusSubmitted, nil)
	time.Sleep(5 * time.Millisecond)
	second := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusRepairing, &f.technician)
	time.Sleep(5 * time.Millisecond)
	testutil.CreateRepairRequest(t, f.db, f.other, f.phone, models.StatusSubmitted, nil)

	all, err := f.store.FetchRequests(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.store.FetchRequests(ctx, Filter{Scope: lifecycle.Scope{CustomerID: f.customer.ID}})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)

	assigned, err := f.store.FetchRequests(ctx, Filter{Scope: lifecycle.Scope{TechnicianID: f.technician.ID}})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0].Technician)
	assert.Equal(t, f.technician.Email, assigned[0].Technician.Email)

	submitted, err := f.store.FetchRequests(ctx, Filter{Status: models.StatusSubmitted})
	require.NoError(t, err)
	assert.Len(t, submitted, 2)

	page, err := f.store.FetchRequests(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	total, err := f.store.CountRequests(ctx, Filter{Scope: lifecycle.Scope{CustomerID: f.customer.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUpdateRequestIfStatus(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusSubmitted, nil)

	from := models.StatusSubmitted
	history := &models.StatusUpdate{FromStatus: &from, Status: models.StatusAssigned, UpdatedBy: "admin"}
	changes := map[string]any{"status": models.StatusAssigned, "technician_id": f.technician.ID}
	require.NoError(t, f.store.UpdateRequestIfStatus(ctx, request.ID, models.StatusSubmitted, changes, history))

	stored, err := f.store.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, stored.Status)
	assert.True(t, stored.IsAssignedTo(f.technician.ID))

	entries, err := f.store.FetchHistory(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusAssigned, entries[0].Status)

	// A second writer still expecting submitted loses
	err = f.store.UpdateRequestIfStatus(ctx, request.ID, models.StatusSubmitted, changes, &models.StatusUpdate{Status: models.StatusAssigned, UpdatedBy: "admin"})
	assert.True(t, errors.Is(err, lifecycle.ErrConflict), "got %v", err)

	entries, err = f.store.FetchHistory(ctx, request.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a lost update writes no history")

	err = f.store.UpdateRequestIfStatus(ctx, "missing", models.StatusSubmitted, changes, nil)
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestLookupByCodeOrID(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusSubmitted, nil)

	byID, err := f.store.LookupByCodeOrID(ctx, request.ID, lifecycle.Scope{})
	require.NoError(t, err)
	assert.Equal(t, request.ID, byID.ID)

	byCode, err := f.store.LookupByCodeOrID(ctx, request.TrackingCode, lifecycle.Scope{CustomerID: f.customer.ID})
	require.NoError(t, err)
	assert.Equal(t, request.ID, byCode.ID)

	_, err = f.store.LookupByCodeOrID(ctx, request.TrackingCode, lifecycle.Scope{CustomerID: f.other.ID})
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound), "outside scope")

	_, err = f.store.LookupByCodeOrID(ctx, "RR-00000000", lifecycle.Scope{})
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))

	_, err = f.store.LookupByCodeOrID(ctx, "  ", lifecycle.Scope{})
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}

func TestLookupByCodeOrIDIsExact(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusSubmitted, nil)

	for _, code := range []string{
		strings.ToLower(request.TrackingCode),
		" " + request.TrackingCode,
		request.TrackingCode + " ",
		"doesnotexist",
	} {
		_, err := f.store.LookupByCodeOrID(ctx, code, lifecycle.Scope{})
		assert.True(t, errors.Is(err, lifecycle.ErrNotFound), "code %q", code)
	}

	found, err := f.store.LookupByCodeOrID(ctx, request.TrackingCode, lifecycle.Scope{})
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)
}

func TestMessagesInSendOrder(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusRepairing, &f.technician)

	for _, text := range []string{"first", "second", "third"} {
		message := models.ChatMessage{RepairRequestID: request.ID, SenderID: f.customer.ID, Message: text}
		require.NoError(t, f.store.InsertMessage(ctx, &message))
		assert.Equal(t, f.customer.Email, message.Sender.Email)
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := f.store.FetchMessages(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "third", messages[2].Message)
	assert.Equal(t, f.customer.FullName, messages[0].Sender.FullName)
}

func TestInsertReviewRejectsDuplicates(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusCompleted, &f.technician)

	review := models.Review{RepairRequestID: request.ID, CustomerID: f.customer.ID, TechnicianID: f.technician.ID, Rating: 5}
	require.NoError(t, f.store.InsertReview(ctx, &review))

	again := models.Review{RepairRequestID: request.ID, CustomerID: f.customer.ID, TechnicianID: f.technician.ID, Rating: 1}
	err := f.store.InsertReview(ctx, &again)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict), "got %v", err)

	reviews, err := f.store.FetchReviews(ctx, f.technician.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, f.customer.Email, reviews[0].Customer.Email)

	none, err := f.store.FetchReviews(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestImages(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	request := testutil.CreateRepairRequest(t, f.db, f.customer, f.phone, models.StatusSubmitted, nil)

	image := models.RepairImage{RepairRequestID: request.ID, UploadedBy: f.customer.ID, StorageKey: "uploads/1_front.png"}
	require.NoError(t, f.store.InsertImage(ctx, &image))

	images, err := f.store.FetchImages(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "uploads/1_front.png", images[0].StorageKey)
}

func TestProfiles(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	found, err := f.store.GetProfileByAuth0ID(ctx, f.customer.Auth0ID)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, found.ID)

	_, err = f.store.GetProfileByAuth0ID(ctx, "auth0|nobody")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))

	duplicate := models.Profile{Auth0ID: "auth0|new", FullName: "New", Email: f.customer.Email}
	err = f.store.CreateProfile(ctx, &duplicate)
	assert.True(t, errors.Is(err, lifecycle.ErrConflict), "got %v", err)

	phone := "555-0100"
	updated, err := f.store.UpdateProfile(ctx, f.customer.ID, map[string]any{"full_name": "Renamed", "phone": phone})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = f.store.UpdateProfile(ctx, f.customer.ID, map[string]any{"email": f.other.Email})
	assert.True(t, errors.Is(err, lifecycle.ErrConflict))

	technicians, err := f.store.ListProfiles(ctx, models.RoleTechnician)
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, f.technician.ID, technicians[0].ID)

	everyone, err := f.store.ListProfiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 3)
}

func TestDeviceTypes(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	testutil.CreateDeviceType(t, f.db, "Laptop", "Computer")

	deviceTypes, err := f.store.ListDeviceTypes(ctx)
	require.NoError(t, err)
	require.Len(t, deviceTypes, 2)
	assert.Equal(t, "Computer", deviceTypes[0].Category)

	found, err := f.store.GetDeviceType(ctx, f.phone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smartphone", found.Name)

	_, err = f.store.GetDeviceType(ctx, "missing")
	assert.True(t, errors.Is(err, lifecycle.ErrNotFound))
}
