package ops

import (
	"context"
	"encoding/json"

	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dirman"
	"github.com/sandialabs/faodel-sub005/internal/ferr"
)

// dirmanKind is this Router's frame Kind for every dirman RootCaller call.
const dirmanKind = "dirman"

// dirmanRequest/dirmanResponse are the JSON bodies carried inside a
// Router frame for a remote RootCaller call.
type dirmanRequest struct {
	Method       string               `json:"method"`
	DirInfo      common.DirectoryInfo `json:"dir_info,omitempty"`
	Parent       common.ResourceURL   `json:"parent,omitempty"`
	Name         string               `json:"name,omitempty"`
	Child        common.ResourceURL   `json:"child,omitempty"`
	URL          common.ResourceURL   `json:"url,omitempty"`
	CacheIfFound bool                 `json:"cache_if_found,omitempty"`
	AllowCreate  bool                 `json:"allow_create,omitempty"`
}

type dirmanResponse struct {
	DirInfo common.DirectoryInfo `json:"dir_info,omitempty"`
	Node    common.NodeID        `json:"node,omitempty"`
}

// RemoteRootCaller implements dirman.RootCaller by round-tripping each call
// through a shared Router to the node hosting the authoritative root
// (§4.4's "a remote implementation is provided by the ops package").
type RemoteRootCaller struct {
	router   *Router
	rootNode common.NodeID
}

// NewRemoteRootCaller builds a RootCaller that drives every request over
// router to rootNode. router must already be served (Router.Serve) by the
// time any call is made.
func NewRemoteRootCaller(router *Router, rootNode common.NodeID) *RemoteRootCaller {
	return &RemoteRootCaller{router: router, rootNode: rootNode}
}

func (r *RemoteRootCaller) call(ctx context.Context, req dirmanRequest) (dirmanResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return dirmanResponse{}, ferr.Wrap(ferr.InvalidArg, "ops.dirman", err)
	}
	replyBody, err := r.router.Call(ctx, r.rootNode, dirmanKind, reqBody)
	if err != nil {
		return dirmanResponse{}, ferr.Wrap(ferr.Transport, "ops.dirman", err)
	}
	var resp dirmanResponse
	if err := json.Unmarshal(replyBody, &resp); err != nil {
		return dirmanResponse{}, ferr.Wrap(ferr.InvalidArg, "ops.dirman", err)
	}
	return resp, nil
}

func (r *RemoteRootCaller) HostNewDir(ctx context.Context, di common.DirectoryInfo) error {
	_, err := r.call(ctx, dirmanRequest{Method: "HostNewDir", DirInfo: di})
	return err
}

func (r *RemoteRootCaller) JoinDirWithName(ctx context.Context, parent common.ResourceURL, name string) (common.DirectoryInfo, error) {
	resp, err := r.call(ctx, dirmanRequest{Method: "JoinDirWithName", Parent: parent, Name: name})
	return resp.DirInfo, err
}

func (r *RemoteRootCaller) JoinDirWithoutName(ctx context.Context, parent common.ResourceURL) (common.DirectoryInfo, error) {
	resp, err := r.call(ctx, dirmanRequest{Method: "JoinDirWithoutName", Parent: parent})
	return resp.DirInfo, err
}

func (r *RemoteRootCaller) LeaveDir(ctx context.Context, child common.ResourceURL) (common.DirectoryInfo, error) {
	resp, err := r.call(ctx, dirmanRequest{Method: "LeaveDir", Child: child})
	return resp.DirInfo, err
}

func (r *RemoteRootCaller) Locate(ctx context.Context, url common.ResourceURL) (common.NodeID, error) {
	resp, err := r.call(ctx, dirmanRequest{Method: "Locate", URL: url})
	return resp.Node, err
}

func (r *RemoteRootCaller) GetDirectoryInfo(ctx context.Context, url common.ResourceURL, cacheIfFound, allowCreate bool) (common.DirectoryInfo, error) {
	resp, err := r.call(ctx, dirmanRequest{Method: "GetDirectoryInfo", URL: url, CacheIfFound: cacheIfFound, AllowCreate: allowCreate})
	return resp.DirInfo, err
}

// RegisterDirmanRPCServer wires root to answer dirman Router frames,
// bridging the wire seam to the authoritative root implementation of
// §4.4. The registration takes effect once router.Serve is running.
func RegisterDirmanRPCServer(router *Router, root *dirman.RootServer) {
	router.Handle(dirmanKind, func(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
		var req dirmanRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, ferr.Wrap(ferr.InvalidArg, "ops.dirman", err)
		}
		resp, err := dispatchDirman(ctx, root, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
}

func dispatchDirman(ctx context.Context, root *dirman.RootServer, req dirmanRequest) (dirmanResponse, error) {
	var (
		di  common.DirectoryInfo
		n   common.NodeID
		err error
	)
	switch req.Method {
	case "HostNewDir":
		err = root.HostNewDir(ctx, req.DirInfo)
	case "JoinDirWithName":
		di, err = root.JoinDirWithName(ctx, req.Parent, req.Name)
	case "JoinDirWithoutName":
		di, err = root.JoinDirWithoutName(ctx, req.Parent)
	case "LeaveDir":
		di, err = root.LeaveDir(ctx, req.Child)
	case "Locate":
		n, err = root.Locate(ctx, req.URL)
	case "GetDirectoryInfo":
		di, err = root.GetDirectoryInfo(ctx, req.URL, req.CacheIfFound, req.AllowCreate)
	default:
		err = ferr.New(ferr.InvalidArg, "ops.dirman", "unknown method "+req.Method)
	}
	if err != nil {
		return dirmanResponse{}, err
	}
	return dirmanResponse{DirInfo: di, Node: n}, nil
}
