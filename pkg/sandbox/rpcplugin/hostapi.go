package rpcplugin

import "net/rpc"

// HostAPI is the host-side interface a guest process calls back into. Its
// shape is exactly the eight functions of §4.D.3 (log_message, emit_event,
// get_config_value, get_state, set_state, get_credential, get_time,
// random); sandbox.HostState implements it structurally so this package
// never needs to import pkg/sandbox.
type HostAPI interface {
	LogMessage(msg string) int32
	EmitEvent(payloadJSON []byte, typeOverride string) int32
	GetConfigValue(key string, bufLen int) ([]byte, int32)
	GetState(bufLen int) ([]byte, int32)
	SetState(stateJSON []byte) int32
	GetCredential(credID string, bufLen int) ([]byte, int32)
	GetTime() uint64
	Random() uint32
}

// Args/Reply pairs below are gob-encodable, matching net/rpc's requirement
// that every exported method have the shape func(Args, *Reply) error.

type LogArgs struct{ Msg string }
type EmitArgs struct {
	PayloadJSON  []byte
	TypeOverride string
}
type BufArgs struct {
	Key    string // unused for GetState
	BufLen int
}
type CredArgs struct {
	CredentialID string
	BufLen       int
}
type BufReply struct {
	Data   []byte
	Status int32
}
type StatusReply struct{ Status int32 }

// HostAPIServer adapts a HostAPI into net/rpc method signatures. It runs
// inside the host process and is exposed to the guest over the MuxBroker
// stream opened at hostAPIBrokerID.
type HostAPIServer struct {
	Impl HostAPI
}

func (s *HostAPIServer) LogMessage(args LogArgs, reply *StatusReply) error {
	reply.Status = s.Impl.LogMessage(args.Msg)
	return nil
}

func (s *HostAPIServer) EmitEvent(args EmitArgs, reply *StatusReply) error {
	reply.Status = s.Impl.EmitEvent(args.PayloadJSON, args.TypeOverride)
	return nil
}

func (s *HostAPIServer) GetConfigValue(args BufArgs, reply *BufReply) error {
	data, status := s.Impl.GetConfigValue(args.Key, args.BufLen)
	reply.Data, reply.Status = data, status
	return nil
}

func (s *HostAPIServer) GetState(args BufArgs, reply *BufReply) error {
	data, status := s.Impl.GetState(args.BufLen)
	reply.Data, reply.Status = data, status
	return nil
}

func (s *HostAPIServer) SetState(args []byte, reply *StatusReply) error {
	reply.Status = s.Impl.SetState(args)
	return nil
}

func (s *HostAPIServer) GetCredential(args CredArgs, reply *BufReply) error {
	data, status := s.Impl.GetCredential(args.CredentialID, args.BufLen)
	reply.Data, reply.Status = data, status
	return nil
}

func (s *HostAPIServer) GetTime(args struct{}, reply *uint64) error {
	*reply = s.Impl.GetTime()
	return nil
}

func (s *HostAPIServer) Random(args struct{}, reply *uint32) error {
	*reply = s.Impl.Random()
	return nil
}

// HostAPIClient is the guest-side stub a module binary links against to
// reach the eight host calls. It is exported so that Helix-authored guest
// modules (out of this repo's build) can depend on rpcplugin as their SDK.
type HostAPIClient struct {
	client *rpc.Client
}

func NewHostAPIClient(client *rpc.Client) *HostAPIClient {
	return &HostAPIClient{client: client}
}

func (c *HostAPIClient) LogMessage(msg string) int32 {
	var reply StatusReply
	if err := c.client.Call("Plugin.LogMessage", LogArgs{Msg: msg}, &reply); err != nil {
		return -6
	}
	return reply.Status
}

func (c *HostAPIClient) EmitEvent(payloadJSON []byte, typeOverride string) int32 {
	var reply StatusReply
	args := EmitArgs{PayloadJSON: payloadJSON, TypeOverride: typeOverride}
	if err := c.client.Call("Plugin.EmitEvent", args, &reply); err != nil {
		return -6
	}
	return reply.Status
}

func (c *HostAPIClient) GetConfigValue(key string, bufLen int) ([]byte, int32) {
	var reply BufReply
	if err := c.client.Call("Plugin.GetConfigValue", BufArgs{Key: key, BufLen: bufLen}, &reply); err != nil {
		return nil, -6
	}
	return reply.Data, reply.Status
}

func (c *HostAPIClient) GetState(bufLen int) ([]byte, int32) {
	var reply BufReply
	if err := c.client.Call("Plugin.GetState", BufArgs{BufLen: bufLen}, &reply); err != nil {
		return nil, -6
	}
	return reply.Data, reply.Status
}

func (c *HostAPIClient) SetState(stateJSON []byte) int32 {
	var reply StatusReply
	if err := c.client.Call("Plugin.SetState", stateJSON, &reply); err != nil {
		return -6
	}
	return reply.Status
}

func (c *HostAPIClient) GetCredential(credID string, bufLen int) ([]byte, int32) {
	var reply BufReply
	args := CredArgs{CredentialID: credID, BufLen: bufLen}
	if err := c.client.Call("Plugin.GetCredential", args, &reply); err != nil {
		return nil, -6
	}
	return reply.Data, reply.Status
}

func (c *HostAPIClient) GetTime() uint64 {
	var reply uint64
	_ = c.client.Call("Plugin.GetTime", struct{}{}, &reply)
	return reply
}

func (c *HostAPIClient) Random() uint32 {
	var reply uint32
	_ = c.client.Call("Plugin.Random", struct{}{}, &reply)
	return reply
}
