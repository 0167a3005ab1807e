package pool

import (
	"context"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// Pool is the client handle obtained from connect(url) (§4.5), polymorphic
// over {Publish, Want, Info, RowInfo, List, Drop}. Compute is named in the
// capability set but given no further semantics anywhere in the spec, so
// it is left out of this interface rather than stubbed with invented
// behavior (see DESIGN.md).
type Pool interface {
	URL() common.ResourceURL
	Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error
	Want(ctx context.Context, key localkv.Key) (dataobject.DO, error)
	Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error)
	RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error)
	List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error)
	Drop(ctx context.Context, key localkv.Key) error
}
