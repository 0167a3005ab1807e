package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// UnconfiguredPool is handed back for a url that has not been connected to
// a real variant yet; every operation fails with Unconfigured.
type UnconfiguredPool struct {
	url common.ResourceURL
}

// NewUnconfiguredPool builds an UnconfiguredPool for url.
func NewUnconfiguredPool(url common.ResourceURL) *UnconfiguredPool {
	return &UnconfiguredPool{url: url}
}

func (p *UnconfiguredPool) URL() common.ResourceURL { return p.url }

func (p *UnconfiguredPool) unconfigured() error {
	return ferr.New(ferr.Unconfigured, "pool.unconfigured", "pool not configured: "+p.url.GetFullURL())
}

func (p *UnconfiguredPool) Publish(context.Context, localkv.Key, dataobject.DO) error {
	return p.unconfigured()
}

func (p *UnconfiguredPool) Want(context.Context, localkv.Key) (dataobject.DO, error) {
	return dataobject.DO{}, p.unconfigured()
}

func (p *UnconfiguredPool) Info(context.Context, localkv.Key) (localkv.ObjectInfo, error) {
	return localkv.ObjectInfo{}, p.unconfigured()
}

func (p *UnconfiguredPool) RowInfo(context.Context, string) (localkv.ObjectInfo, error) {
	return localkv.ObjectInfo{}, p.unconfigured()
}

func (p *UnconfiguredPool) List(context.Context, string, string) ([]localkv.ListEntry, error) {
	return nil, p.unconfigured()
}

func (p *UnconfiguredPool) Drop(context.Context, localkv.Key) error {
	return p.unconfigured()
}
