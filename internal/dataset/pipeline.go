package dataset

import (
	"context"
	"time"

	"copurchase-dashboard/internal/models"
	"copurchase-dashboard/internal/observability"
)

// Pipeline runs load, normalize and enrich for one configuration.
type Pipeline struct {
	loader     *Loader
	classifier RoleClassifier
}

type Result struct {
	Dataset *models.Dataset
	Report  Report
}

func NewPipeline(loader *Loader, classifier RoleClassifier) *Pipeline {
	return &Pipeline{loader: loader, classifier: classifier}
}

func (p *Pipeline) Classifier() RoleClassifier {
	return p.classifier
}

// Key extends the loader key with the leader rule, since enrichment output
// depends on it.
func (p *Pipeline) Key() Key {
	k := p.loader.Key()
	k.LeaderRule = p.classifier.Name()
	return k
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.pipeline")
	defer span.Finish()
	span.SetTag("policy", string(p.loader.Policy()))
	span.SetTag("leader_rule", p.classifier.Name())

	start := time.Now()
	ds, report, err := p.loader.Load(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	report.Duration = time.Since(start)

	return &Result{
		Dataset: Enrich(ds, p.classifier),
		Report:  report,
	}, nil
}
