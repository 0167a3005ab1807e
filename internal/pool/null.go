package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// NullPool drops writes and reports not-found on every read; used as a
// sentinel pool (§4.5), e.g. when an unpublished pool url is requested.
type NullPool struct {
	url common.ResourceURL
}

// NewNullPool builds a NullPool for url.
func NewNullPool(url common.ResourceURL) *NullPool {
	return &NullPool{url: url}
}

func (p *NullPool) URL() common.ResourceURL { return p.url }

func (p *NullPool) Publish(context.Context, localkv.Key, dataobject.DO) error { return nil }

func (p *NullPool) Want(context.Context, localkv.Key) (dataobject.DO, error) {
	return dataobject.DO{}, ferr.New(ferr.NotFound, "pool.null", "null pool never has anything")
}

func (p *NullPool) Info(context.Context, localkv.Key) (localkv.ObjectInfo, error) {
	return localkv.ObjectInfo{}, ferr.New(ferr.NotFound, "pool.null", "null pool never has anything")
}

func (p *NullPool) RowInfo(context.Context, string) (localkv.ObjectInfo, error) {
	return localkv.ObjectInfo{}, ferr.New(ferr.NotFound, "pool.null", "null pool never has anything")
}

func (p *NullPool) List(context.Context, string, string) ([]localkv.ListEntry, error) {
	return nil, nil
}

func (p *NullPool) Drop(context.Context, localkv.Key) error {
	return ferr.New(ferr.NotFound, "pool.null", "null pool never has anything")
}
