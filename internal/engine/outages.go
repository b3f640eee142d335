package engine

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/outage-alert-service/internal/dedup"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/notify"
	"github.com/couchcryptid/outage-alert-service/internal/parser"
)

// checkOutages is the outages_check kind: fetch, parse, dedup, then notify
// every target group about the outages it has not been told about yet.
//
// Failures before dispatch abort the kind. A failed group send does not:
// its outages simply stay unnotified for the next run.
func (e *Engine) checkOutages(ctx context.Context, task domain.Task, runID string) (KindReport, error) {
	logger := e.logger.With("run_id", runID, "kind", KindOutagesCheck)
	var kr KindReport

	body, err := e.fetch(ctx)
	if err != nil {
		return kr, &StepError{Step: StepFetch, Err: err}
	}

	doc, err := e.decode(body)
	if err != nil {
		return kr, &StepError{Step: StepParse, Err: err}
	}
	p := parser.New(logger, parser.WithRowErrorHook(func(*domain.RowParseError) {
		e.metrics.RowParseErrors.Inc()
	}))
	outages, err := p.Parse(doc)
	if err != nil {
		return kr, &StepError{Step: StepParse, Err: err}
	}
	kr.Parsed = len(outages)
	e.metrics.OutagesParsed.Add(float64(len(outages)))

	res, err := dedup.NewIngester(e.store, logger).Ingest(ctx, outages)
	if err != nil {
		return kr, &StepError{Step: StepDedupAndStore, Err: err}
	}
	kr.New, kr.Existing = len(res.New), len(res.Existing)
	e.metrics.OutagesNew.Add(float64(kr.New))
	e.metrics.OutagesExisting.Add(float64(kr.Existing))
	kr.Published = e.publish(ctx, logger, res.New)

	pending, err := e.store.UnnotifiedOutages(ctx)
	if err != nil {
		return kr, &StepError{Step: StepCollectUnnotified, Err: err}
	}
	kr.Pending = len(pending)
	e.metrics.OutagesPending.Set(float64(len(pending)))
	if len(pending) == 0 {
		logger.Info("no unnotified outages")
		return kr, nil
	}

	groups, err := e.resolveGroups(ctx, task)
	if err != nil {
		return kr, &StepError{Step: StepResolveGroups, Err: err}
	}
	kr.Groups = len(groups)
	if len(groups) == 0 {
		logger.Warn("no active target groups", "target_groups", task.TargetGroups)
		return kr, nil
	}

	var messages []notify.Message
	for _, g := range groups {
		selected := domain.FilterForGroup(g, pending)
		if len(selected) == 0 {
			logger.Debug("no matching outages for group", "group_id", g.GroupID)
			continue
		}
		msg := e.formatter.Format(g, selected)
		if msg.Omitted > 0 {
			logger.Info("digest truncated", "group_id", g.GroupID, "omitted", msg.Omitted)
		}
		messages = append(messages, msg)
	}
	kr.Messages = len(messages)
	if len(messages) == 0 {
		return kr, nil
	}

	deliveries := e.dispatcher.Send(ctx, messages)
	for _, d := range deliveries {
		e.metrics.SendDuration.Observe(d.Duration.Seconds())
		if d.Sent() {
			kr.Sent++
			e.metrics.NotificationsSent.Inc()
		} else {
			kr.Failed++
			e.metrics.DispatchErrors.Inc()
		}
	}

	if kr.Failed > 0 {
		e.metrics.StepFailures.WithLabelValues(string(StepDispatch)).Add(float64(kr.Failed))
	}

	// Sent digests are delivered; recording them must not depend on ctx.
	fctx, cancel := e.detached(ctx)
	defer cancel()

	ids := notify.NotifiedIDs(deliveries)
	if len(ids) > 0 {
		if err := e.store.MarkNotified(fctx, ids); err != nil {
			return kr, &StepError{Step: StepMarkNotified, Err: err}
		}
	}
	kr.Notified = len(ids)

	kr.Recorded = e.dispatcher.RecordHistory(fctx, runID, deliveries)
	if missing := kr.Sent - kr.Recorded; missing > 0 {
		e.metrics.StepFailures.WithLabelValues(string(StepRecordHistory)).Add(float64(missing))
		logger.Warn("notification history incomplete", "step", StepRecordHistory, "missing", missing)
	}

	logger.Info("outages check finished",
		"parsed", kr.Parsed,
		"new", kr.New,
		"pending", kr.Pending,
		"sent", kr.Sent,
		"failed", kr.Failed,
		"notified", kr.Notified,
	)
	return kr, nil
}

func (e *Engine) fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	start := e.clock.Now()
	body, err := e.fetcher.Fetch(ctx)
	e.metrics.FetchDuration.Observe(e.clock.Since(start).Seconds())
	return body, err
}

// publish streams first-seen outages. Stream failures are logged only.
func (e *Engine) publish(ctx context.Context, logger *slog.Logger, outages []domain.Outage) int {
	if e.publisher == nil || len(outages) == 0 {
		return 0
	}
	if err := e.publisher.PublishOutages(ctx, outages); err != nil {
		e.metrics.PublishErrors.Inc()
		logger.Warn("publish new outages failed", "count", len(outages), "error", err)
		return 0
	}
	e.metrics.OutagesPublished.Add(float64(len(outages)))
	return len(outages)
}

func (e *Engine) resolveGroups(ctx context.Context, task domain.Task) ([]domain.Group, error) {
	if len(task.TargetGroups) > 0 {
		return e.store.GroupsByIDs(ctx, task.TargetGroups)
	}
	return e.store.ActiveGroups(ctx)
}
