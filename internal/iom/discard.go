package iom

import (
	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// DiscardIOM is a null sink: Put succeeds and forgets, Get/List/Drop report
// not-found. Grounded on backend/alias's passthrough-registration shape —
// a backend that exists purely to satisfy the registry's constructor
// contract without doing real work. Useful for tests and for
// WriteToIOM-configured pools that intentionally run without persistence.
type DiscardIOM struct {
	name string
}

// NewDiscardIOM builds a DiscardIOM; it matches the iom.Constructor
// signature so it can be registered via Registry.RegisterType.
func NewDiscardIOM(name string, _ Settings) (IOM, error) {
	return &DiscardIOM{name: name}, nil
}

func (d *DiscardIOM) Name() string { return d.name }

func (d *DiscardIOM) Get(_ common.Bucket, key localkv.Key) (dataobject.DO, error) {
	return dataobject.DO{}, ferr.New(ferr.NotFound, "iom.discard", "discard IOM stores nothing: "+key.Primary)
}

func (d *DiscardIOM) Put(_ common.Bucket, _ localkv.Key, _ dataobject.DO) error {
	return nil
}

func (d *DiscardIOM) List(_ common.Bucket, _, _ string) ([]localkv.ListEntry, error) {
	return nil, nil
}

func (d *DiscardIOM) Drop(_ common.Bucket, _ localkv.Key) error {
	return nil
}
