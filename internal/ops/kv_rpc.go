package ops

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dataobject"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
	"github.com/sandialabs/faodel-sub005/internal/pool"
)

// kvKind is this Router's frame Kind for every remote pool.Pool call.
const kvKind = "kv"

type kvRequest struct {
	Method        string        `json:"method"`
	Bucket        common.Bucket `json:"bucket"`
	Flags         pool.Flags    `json:"flags,omitempty"`
	Key           localkv.Key   `json:"key,omitempty"`
	DO            []byte        `json:"do,omitempty"`
	PrimaryPrefix string        `json:"primary_prefix,omitempty"`
	ColPattern    string        `json:"col_pattern,omitempty"`
}

type kvResponse struct {
	DO      []byte              `json:"do,omitempty"`
	Info    localkv.ObjectInfo  `json:"info,omitempty"`
	Entries []localkv.ListEntry `json:"entries,omitempty"`
}

// encodeKVDO flattens a DO's meta/data segments for the wire, the same
// length-prefixed shape iom/bolt.go uses for its on-disk records.
func encodeKVDO(do dataobject.DO) []byte {
	meta := do.MetaPtr()
	data := do.DataPtr()
	buf := make([]byte, 8+len(meta)+len(data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(meta)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(data)))
	copy(buf[8:8+len(meta)], meta)
	copy(buf[8+len(meta):], data)
	return buf
}

func decodeKVDO(raw []byte) (dataobject.DO, error) {
	if len(raw) < 8 {
		return dataobject.DO{}, ferr.New(ferr.Fatal, "ops.kv", "corrupt wire DO: too short")
	}
	metaLen := int(binary.BigEndian.Uint32(raw[0:4]))
	dataLen := int(binary.BigEndian.Uint32(raw[4:8]))
	if len(raw) != 8+metaLen+dataLen {
		return dataobject.DO{}, ferr.New(ferr.Fatal, "ops.kv", "corrupt wire DO: length mismatch")
	}
	do, err := dataobject.New(metaLen+dataLen, metaLen, dataLen, dataobject.Lazy, 0, nil)
	if err != nil {
		return dataobject.DO{}, err
	}
	copy(do.MetaPtr(), raw[8:8+metaLen])
	copy(do.DataPtr(), raw[8+metaLen:])
	return do, nil
}

// RemoteKVProxy implements pool.Pool by round-tripping each call through a
// shared Router to the node that owns a DhtPool member — the remote-proxy
// Pool DhtPool.resolve needs for any member that is not this process (§4.5,
// §8 scenario 3). Flags travels with every request exactly as asserted by
// the DhtPool that built this proxy; the destination node converts it with
// pool.RemoteToLocal before honoring it, since a bit that means "write to
// the remote member" on the caller's side means "write to me" once it
// arrives there.
type RemoteKVProxy struct {
	url    common.ResourceURL
	bucket common.Bucket
	flags  pool.Flags
	router *Router
	peer   common.NodeID
}

// NewRemoteKVProxy builds a Pool that drives every call over router to
// peer, against peer's copy of bucket, asserting flags on every request.
// router must already be served by the time any call is made.
func NewRemoteKVProxy(url common.ResourceURL, bucket common.Bucket, flags pool.Flags, router *Router, peer common.NodeID) *RemoteKVProxy {
	return &RemoteKVProxy{url: url, bucket: bucket, flags: flags, router: router, peer: peer}
}

func (p *RemoteKVProxy) URL() common.ResourceURL { return p.url }

func (p *RemoteKVProxy) call(ctx context.Context, req kvRequest) (kvResponse, error) {
	req.Bucket = p.bucket
	req.Flags = p.flags
	reqBody, err := json.Marshal(req)
	if err != nil {
		return kvResponse{}, ferr.Wrap(ferr.InvalidArg, "ops.kv", err)
	}
	replyBody, err := p.router.Call(ctx, p.peer, kvKind, reqBody)
	if err != nil {
		return kvResponse{}, ferr.Wrap(ferr.Transport, "ops.kv", err)
	}
	var resp kvResponse
	if err := json.Unmarshal(replyBody, &resp); err != nil {
		return kvResponse{}, ferr.Wrap(ferr.InvalidArg, "ops.kv", err)
	}
	return resp, nil
}

func (p *RemoteKVProxy) Publish(ctx context.Context, key localkv.Key, do dataobject.DO) error {
	_, err := p.call(ctx, kvRequest{Method: "Publish", Key: key, DO: encodeKVDO(do)})
	return err
}

func (p *RemoteKVProxy) Want(ctx context.Context, key localkv.Key) (dataobject.DO, error) {
	resp, err := p.call(ctx, kvRequest{Method: "Want", Key: key})
	if err != nil {
		return dataobject.DO{}, err
	}
	return decodeKVDO(resp.DO)
}

func (p *RemoteKVProxy) Info(ctx context.Context, key localkv.Key) (localkv.ObjectInfo, error) {
	resp, err := p.call(ctx, kvRequest{Method: "Info", Key: key})
	return resp.Info, err
}

func (p *RemoteKVProxy) RowInfo(ctx context.Context, primary string) (localkv.ObjectInfo, error) {
	resp, err := p.call(ctx, kvRequest{Method: "RowInfo", Key: localkv.Key{Primary: primary}})
	return resp.Info, err
}

func (p *RemoteKVProxy) List(ctx context.Context, primaryPrefix, colPattern string) ([]localkv.ListEntry, error) {
	resp, err := p.call(ctx, kvRequest{Method: "List", PrimaryPrefix: primaryPrefix, ColPattern: colPattern})
	return resp.Entries, err
}

func (p *RemoteKVProxy) Drop(ctx context.Context, key localkv.Key) error {
	_, err := p.call(ctx, kvRequest{Method: "Drop", Key: key})
	return err
}

// KVRPCServer answers kv Router frames against a node's own LocalKV,
// applying pool.RemoteToLocal to every request's flags before honoring it
// (the caller's WriteToRemote/ReadToRemote become this node's
// WriteToLocal/ReadToLocal, §4.5's flag semantics at the receiving end).
type KVRPCServer struct {
	kv *localkv.LocalKV
}

// RegisterKVRPCServer wires kv to answer kv Router frames directed at this
// node, on behalf of every RemoteKVProxy pointed here. Registration takes
// effect once router.Serve is running.
func RegisterKVRPCServer(router *Router, kv *localkv.LocalKV) {
	s := &KVRPCServer{kv: kv}
	router.Handle(kvKind, func(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
		var req kvRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, ferr.Wrap(ferr.InvalidArg, "ops.kv", err)
		}
		resp, err := s.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
}

func (s *KVRPCServer) dispatch(ctx context.Context, req kvRequest) (kvResponse, error) {
	flags := pool.RemoteToLocal(req.Flags)
	switch req.Method {
	case "Publish":
		if !flags.Has(pool.WriteToLocal) {
			return kvResponse{}, ferr.New(ferr.Unconfigured, "ops.kv", "request not flagged to write at destination")
		}
		do, err := decodeKVDO(req.DO)
		if err != nil {
			return kvResponse{}, err
		}
		return kvResponse{}, s.kv.Put(req.Bucket, req.Key, do, flags.Has(pool.EnableOverwrites))
	case "Want":
		if !flags.Has(pool.ReadToLocal) {
			return kvResponse{}, ferr.New(ferr.Unconfigured, "ops.kv", "request not flagged to read at destination")
		}
		do, avail, err := s.kv.Get(req.Bucket, req.Key)
		if err != nil {
			return kvResponse{}, err
		}
		if avail != localkv.InLocalMemory {
			return kvResponse{}, ferr.New(ferr.NotFound, "ops.kv", "not yet in memory: "+req.Key.Primary)
		}
		return kvResponse{DO: encodeKVDO(do)}, nil
	case "Info":
		info, err := s.kv.Info(req.Bucket, req.Key)
		return kvResponse{Info: info}, err
	case "RowInfo":
		info, err := s.kv.RowInfo(req.Bucket, req.Key.Primary)
		return kvResponse{Info: info}, err
	case "List":
		return kvResponse{Entries: s.kv.List(req.Bucket, req.PrimaryPrefix, req.ColPattern)}, nil
	case "Drop":
		return kvResponse{}, s.kv.Drop(req.Bucket, req.Key)
	default:
		return kvResponse{}, ferr.New(ferr.InvalidArg, "ops.kv", "unknown method "+req.Method)
	}
}
