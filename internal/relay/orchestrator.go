package relay

import (
	"context"
	"fmt"
	"log/slog"

	"tasklink.app/relay/common/logger"
	"tasklink.app/relay/internal/audit"
	"tasklink.app/relay/internal/crosslink"
)

// Counterpart is the subset of a platform adapter the orchestrator calls on
// the receiving side of a relay.
type Counterpart interface {
	Create(ctx context.Context, f Fields) (Created, error)
	Close(ctx context.Context, id string) error
}

// LinkWriter writes the cross-link back into the originating platform's
// record after a successful creation.
type LinkWriter interface {
	AppendLink(ctx context.Context, id, body, link string) error
}

type OrchestratorConfig struct {
	Direction   Direction
	Counterpart Counterpart
	Origin      LinkWriter

	// LookupAssignee maps the originating platform's user ID into the
	// counterpart's namespace. A miss aborts the creation.
	LookupAssignee func(sourceUserID string) (string, bool)

	// SourceLink renders the cross-link pointing at the originating record,
	// embedded into the counterpart's body on creation.
	SourceLink func(sourceID string) string

	// CounterpartLink renders the cross-link pointing at the created
	// counterpart, written back into the originating record.
	CounterpartLink func(c Created) string

	// ExtractCounterpartID recovers the counterpart's ID from the
	// originating record's body on closure.
	ExtractCounterpartID func(body string) (string, bool)

	Audit audit.Recorder
}

// Orchestrator sequences one relay direction: map identity, call the
// counterpart adapter, write the cross-link back. One instance exists per
// direction; instances hold no mutable state, so concurrent invocations are
// safe.
type Orchestrator struct {
	cfg OrchestratorConfig
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Audit == nil {
		cfg.Audit = audit.NewNopRecorder()
	}
	return &Orchestrator{cfg: cfg}
}

func (o *Orchestrator) Direction() Direction {
	return o.cfg.Direction
}

// RelayCreation creates the counterpart record for a newly opened source
// record and writes the cross-link back into the source. A failed link
// write-back does not roll back the creation; it is surfaced on the Result.
func (o *Orchestrator) RelayCreation(ctx context.Context, ev Event) (*Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SourceID:  logger.Ptr(ev.SourceID),
		Component: "relay.orchestrator",
	})

	assignee, ok := o.cfg.LookupAssignee(ev.AssigneeID)
	if !ok {
		slog.WarnContext(ctx, "no counterpart user mapped", "source_user_id", ev.AssigneeID)
		o.record(ctx, ev, audit.Entry{Outcome: "failed", Error: ErrMappingMissing.Error()})
		return nil, ErrMappingMissing
	}

	fields := Fields{
		Title:      ev.Title,
		Body:       crosslink.Append(ev.Body, o.cfg.SourceLink(ev.SourceID)),
		DueDate:    ev.DueDate,
		AssigneeID: assignee,
	}

	created, err := o.cfg.Counterpart.Create(ctx, fields)
	if err != nil {
		o.record(ctx, ev, audit.Entry{Outcome: "failed", Error: err.Error()})
		return nil, fmt.Errorf("creating counterpart record: %w", err)
	}

	slog.InfoContext(ctx, "counterpart record created",
		"counterpart_id", created.ID,
		"counterpart_url", created.URL,
	)

	result := &Result{Outcome: OutcomeCreated, Counterpart: created}

	if err := o.cfg.Origin.AppendLink(ctx, ev.SourceID, ev.Body, o.cfg.CounterpartLink(created)); err != nil {
		// The counterpart record exists; the pairing is just not recorded on
		// the originating side. Reported, not compensated.
		slog.ErrorContext(ctx, "cross-link write-back failed",
			"counterpart_id", created.ID,
			"error", err,
		)
		result.LinkWriteErr = err
	}

	o.record(ctx, ev, audit.Entry{
		Outcome:       string(OutcomeCreated),
		CounterpartID: created.ID,
		Error:         errString(result.LinkWriteErr),
	})

	return result, nil
}

// RelayClosure closes the counterpart of a completed source record. The
// counterpart is identified solely by the cross-link embedded in the source
// record's body.
func (o *Orchestrator) RelayClosure(ctx context.Context, ev Event) (*Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SourceID:  logger.Ptr(ev.SourceID),
		Component: "relay.orchestrator",
	})

	counterpartID, ok := o.cfg.ExtractCounterpartID(ev.Body)
	if !ok {
		slog.WarnContext(ctx, "no cross-link found in record body")
		o.record(ctx, ev, audit.Entry{Outcome: "failed", Error: ErrLinkNotFound.Error()})
		return nil, ErrLinkNotFound
	}

	if err := o.cfg.Counterpart.Close(ctx, counterpartID); err != nil {
		o.record(ctx, ev, audit.Entry{Outcome: "failed", CounterpartID: counterpartID, Error: err.Error()})
		return nil, fmt.Errorf("closing counterpart record: %w", err)
	}

	slog.InfoContext(ctx, "counterpart record closed", "counterpart_id", counterpartID)

	o.record(ctx, ev, audit.Entry{
		Outcome:       string(OutcomeClosed),
		CounterpartID: counterpartID,
	})

	return &Result{Outcome: OutcomeClosed, Counterpart: Created{ID: counterpartID}}, nil
}

func (o *Orchestrator) record(ctx context.Context, ev Event, entry audit.Entry) {
	fields := logger.GetLogFields(ctx)
	if fields.DeliveryID != nil {
		entry.DeliveryID = *fields.DeliveryID
	}
	if fields.EventType != nil {
		entry.EventType = *fields.EventType
	}
	entry.Direction = string(o.cfg.Direction)
	entry.SourceID = ev.SourceID

	if err := o.cfg.Audit.Record(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit record failed", "error", err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
