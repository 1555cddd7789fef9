package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"nonconf/internal/cache"
	"nonconf/internal/feed"
	"nonconf/internal/notification"
	"nonconf/internal/policy"
	"nonconf/internal/rnc/handler"
	"nonconf/internal/rnc/service"
	contactstore "nonconf/internal/rnc/store/contact"
	eventstore "nonconf/internal/rnc/store/event"
	productstore "nonconf/internal/rnc/store/product"
	recordstore "nonconf/internal/rnc/store/record"
	transitionstore "nonconf/internal/rnc/store/transition"
	id "nonconf/pkg/domain"
	"nonconf/pkg/testutil"
)

// HandlerSuite drives the HTTP surface against a real service wired to
// in-memory stores, so status codes and error envelopes reflect actual
// service behavior rather than a mocked contract.
type HandlerSuite struct {
	suite.Suite

	router     chi.Router
	svc        *service.Service
	records    *recordstore.InMemoryStore
	changeFeed *feed.InMemoryFeed

	creator  policy.Actor
	admin    policy.Actor
	stranger policy.Actor
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.records = recordstore.NewInMemory()
	s.changeFeed = feed.NewInMemory()
	notifications := notification.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.svc, err = service.New(service.Stores{
		Records:       s.records,
		Products:      productstore.NewInMemory(),
		Contacts:      contactstore.NewInMemory(),
		Events:        eventstore.NewInMemory(),
		Transitions:   transitionstore.NewInMemory(),
		Notifications: notifications,
	}, notification.NewDispatcher(notifications, logger), s.changeFeed, logger,
		service.WithCache(cache.NewInMemory(), 10*time.Minute),
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	watcher := feed.NewReconciler(s.changeFeed, s.svc.AggregateLoader(), logger)
	handler.New(s.svc, watcher, logger).Register(s.router)

	s.creator = policy.Actor{ID: id.NewUserID()}
	s.admin = policy.Actor{ID: id.NewUserID(), Capabilities: []policy.Capability{policy.CapabilityAdmin}}
	s.stranger = policy.Actor{ID: id.NewUserID()}
}

func (s *HandlerSuite) createBody() handler.CreateRecordRequest {
	return handler.CreateRecordRequest{
		Type:        "supplier",
		Department:  "quality",
		Priority:    "high",
		Description: "scratched panels in delivery 7731",
		OrderRef:    "PO-7731",
	}
}

// createRecord posts a record as the suite's creator and returns the response.
func (s *HandlerSuite) createRecord() handler.RecordResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", s.createBody())
	rr := testutil.DoRequest(s.router, testutil.WithActor(req, s.creator))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
}

func (s *HandlerSuite) do(method, path string, body any, actor policy.Actor) *http.Request {
	s.T().Helper()
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	return testutil.WithActor(req, actor)
}

func (s *HandlerSuite) TestCreate() {
	s.Run("rejects unauthenticated requests", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", s.createBody())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("creates a record stamped with the request time", func() {
		pinned := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/records", s.createBody())
		req = testutil.WithRequestTime(testutil.WithActor(req, s.creator), pinned)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)

		record := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
		s.NotEmpty(record.ID)
		s.Equal("open", record.Status)
		s.Equal("supplier", record.Type)
		s.Equal(s.creator.ID.String(), record.CreatedBy)
		s.True(record.CreatedAt.Equal(pinned), "created_at comes from the request-scoped clock")
	})

	s.Run("rejects invalid input", func() {
		body := s.createBody()
		body.Priority = "urgent-ish"
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records", body, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})

	s.Run("rejects malformed JSON", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/records", `{"type": supplier}`)
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, s.creator))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestGetAndList() {
	record := s.createRecord()

	s.Run("returns the aggregate", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/records/"+record.ID, nil, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		agg := testutil.UnmarshalResponse[handler.AggregateResponse](s.T(), rr)
		s.Equal(record.ID, agg.Record.ID)
		s.Len(agg.Events, 1, "creation event is part of the read model")
		s.Equal("creation", agg.Events[0].Type)
	})

	s.Run("unknown record is a 404", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/records/"+id.NewRecordID().String(), nil, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is a 400", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/records/not-a-uuid", nil, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("lists records", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/records", nil, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		records := testutil.UnmarshalResponse[[]handler.RecordResponse](s.T(), rr)
		s.Len(*records, 1)
	})
}

func (s *HandlerSuite) TestUpdate() {
	record := s.createRecord()
	body := s.createBody()
	body.Description = "updated after supplier call"

	s.Run("creator may update", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPatch, "/records/"+record.ID, handler.UpdateRecordRequest(body), s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		updated := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
		s.Equal("updated after supplier call", updated.Description)
	})

	s.Run("body is a full replacement", func() {
		partial := handler.UpdateRecordRequest{
			Type:        "supplier",
			Department:  "quality",
			Priority:    "high",
			Description: "refs dropped on purpose",
		}
		rr := testutil.DoRequest(s.router, s.do(http.MethodPatch, "/records/"+record.ID, partial, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		updated := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
		s.Empty(updated.OrderRef, "an omitted ref is cleared, not preserved")
	})

	s.Run("stranger is forbidden", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPatch, "/records/"+record.ID, handler.UpdateRecordRequest(body), s.stranger))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "permission_denied")
	})

	s.Run("admin may update", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/records/"+record.ID, handler.UpdateRecordRequest(body))
		rr := testutil.DoRequest(s.router, testutil.WithAdmin(req, s.admin.ID))
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *HandlerSuite) TestTransition() {
	record := s.createRecord()

	s.Run("adjacent move succeeds", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/transition",
			handler.TransitionRequest{Target: "analysis", Notes: "root cause started"}, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		moved := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
		s.Equal("analysis", moved.Status)
	})

	s.Run("skipping a stage is a 409", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/transition",
			handler.TransitionRequest{Target: "closed"}, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_transition")
	})

	s.Run("lists the transition history", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/records/"+record.ID+"/transitions", nil, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		history := testutil.UnmarshalResponse[[]handler.TransitionResponse](s.T(), rr)
		s.Require().Len(*history, 1)
		s.Equal("open", (*history)[0].From)
		s.Equal("analysis", (*history)[0].To)
	})

	s.Run("unknown target status is a 400", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/transition",
			handler.TransitionRequest{Target: "archived"}, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})
}

func (s *HandlerSuite) TestAssign() {
	record := s.createRecord()
	assignee := id.NewUserID()

	s.Run("assigns the record", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/assign",
			handler.AssignRequest{AssigneeID: assignee.String()}, s.creator))
		testutil.AssertStatusOK(s.T(), rr)
		assigned := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
		s.Require().NotNil(assigned.AssignedTo)
		s.Equal(assignee.String(), *assigned.AssignedTo)
		s.NotNil(assigned.AssignedAt)
	})

	s.Run("malformed assignee id is a 400", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/assign",
			handler.AssignRequest{AssigneeID: "nobody"}, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})
}

func (s *HandlerSuite) TestCollect() {
	record := s.createRecord()

	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/collect", nil, s.creator))
	testutil.AssertStatusOK(s.T(), rr)
	collected := testutil.UnmarshalResponse[handler.RecordResponse](s.T(), rr)
	s.NotNil(collected.CollectedAt)

	s.Run("second collection is rejected", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/collect", nil, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})
}

func (s *HandlerSuite) TestProductsAndContacts() {
	record := s.createRecord()

	s.Run("adds a product", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/products",
			handler.AddProductRequest{Name: "side panel", Weight: 12.5}, s.creator))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		product := testutil.UnmarshalResponse[handler.ProductResponse](s.T(), rr)
		s.Equal("side panel", product.Name)
	})

	s.Run("adds a contact", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/contacts",
			handler.AddContactRequest{Name: "Rosa Quintas", Phone: "+351210000000", Email: "rosa.quintas@example.com"}, s.creator))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		contact := testutil.UnmarshalResponse[handler.ContactResponse](s.T(), rr)
		s.Equal("Rosa Quintas", contact.Name)
	})

	s.Run("stranger may not attach entities", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/products",
			handler.AddProductRequest{Name: "side panel", Weight: 12.5}, s.stranger))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "permission_denied")
	})
}

func (s *HandlerSuite) TestComments() {
	record := s.createRecord()

	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/comments",
		handler.CommentRequest{Body: "supplier confirmed the batch"}, s.stranger))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	comment := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
	s.Equal("comment", comment.Type)

	s.Run("author deletes own comment", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/records/"+record.ID+"/comments/"+comment.ID, nil, s.stranger))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("admin deletes another author's comment", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/comments",
			handler.CommentRequest{Body: "second note"}, s.stranger))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		other := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)

		req := testutil.NewRequest(s.T(), http.MethodDelete, "/records/"+record.ID+"/comments/"+other.ID)
		rr = testutil.DoRequest(s.router, testutil.WithAdmin(req, s.admin.ID))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("blank body is rejected", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/records/"+record.ID+"/comments",
			handler.CommentRequest{Body: "   "}, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_failed")
	})
}

func (s *HandlerSuite) TestWatch() {
	record := s.createRecord()
	recID, err := id.ParseRecordID(record.ID)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := testutil.NewRequest(s.T(), http.MethodGet, "/records/"+record.ID+"/watch")
	req = req.WithContext(policy.WithActor(ctx, s.creator))
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(rr, req)
	}()

	// Give the stream time to subscribe and emit the initial aggregate, then
	// end it deterministically with a record deletion change.
	time.Sleep(100 * time.Millisecond)
	s.Require().NoError(s.changeFeed.Publish(context.Background(), feed.Change{
		RecordID: recID, Kind: feed.KindDelete, Table: "records",
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.FailNow("watch stream did not terminate on delete")
	}

	body := rr.Body.String()
	s.Contains(body, "event: aggregate")
	s.Contains(body, "event: deleted")
	s.Contains(body, record.ID)
}

func (s *HandlerSuite) TestDelete() {
	record := s.createRecord()

	s.Run("stranger is forbidden", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/records/"+record.ID, nil, s.stranger))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "permission_denied")
	})

	s.Run("creator deletes the record", func() {
		rr := testutil.DoRequest(s.router, s.do(http.MethodDelete, "/records/"+record.ID, nil, s.creator))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

		rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/records/"+record.ID, nil, s.creator))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
