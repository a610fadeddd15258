package client

import (
	"fmt"

	"github.com/nozomi-fs/remotedrive/pkg/proto"
)

// Client is the driver dispatcher. One Client serves one serial
// endpoint and is shared by every FCB opened against it — the
// endpoint-wide state is just the RPC transport, exactly as a single
// BusManager is shared by every SDOClient transfer in the teacher.
type Client struct {
	rpc RPC
}

// New wraps rpc.
func New(rpc RPC) *Client {
	return &Client{rpc: rpc}
}

func (c *Client) call(req interface{ MarshalBinary() ([]byte, error) }) ([]byte, error) {
	payload, err := req.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("client: marshal request: %w", err)
	}
	resp, err := c.rpc.Call(payload)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Check probes the service for liveness (command 0x40).
func (c *Client) Check() error {
	resp, err := c.call(&proto.CheckRequest{})
	if err != nil {
		return err
	}
	var sr proto.StatusResponse
	if len(resp) == 0 {
		return nil
	}
	if err := sr.UnmarshalBinary(resp); err != nil {
		return err
	}
	return statusErr(sr.Res)
}

func (c *Client) dirOp(cmd proto.Command, path proto.NameBuf) error {
	resp, err := c.call(&proto.DirOpRequest{Cmd: cmd, Path: path})
	if err != nil {
		return err
	}
	var sr proto.StatusResponse
	if err := sr.UnmarshalBinary(resp); err != nil {
		return err
	}
	return statusErr(sr.Res)
}

// Chdir tests that path exists and is a directory.
func (c *Client) Chdir(path proto.NameBuf) error { return c.dirOp(proto.CmdChdir, path) }

// Mkdir creates a directory at path.
func (c *Client) Mkdir(path proto.NameBuf) error { return c.dirOp(proto.CmdMkdir, path) }

// Rmdir removes the directory at path.
func (c *Client) Rmdir(path proto.NameBuf) error { return c.dirOp(proto.CmdRmdir, path) }

// Delete removes the file at path.
func (c *Client) Delete(path proto.NameBuf) error { return c.dirOp(proto.CmdDelete, path) }

// Rename renames oldPath to newPath.
func (c *Client) Rename(oldPath, newPath proto.NameBuf) error {
	resp, err := c.call(&proto.RenameRequest{PathOld: oldPath, PathNew: newPath})
	if err != nil {
		return err
	}
	var sr proto.StatusResponse
	if err := sr.UnmarshalBinary(resp); err != nil {
		return err
	}
	return statusErr(sr.Res)
}

// Chmod gets (attr == 0xff) or sets the read-only attribute at path.
// A query returns the file's current attribute byte; a successful set
// returns attr.
func (c *Client) Chmod(path proto.NameBuf, attr byte) (byte, error) {
	resp, err := c.call(&proto.ChmodRequest{Attr: attr, Path: path})
	if err != nil {
		return 0, err
	}
	var sr proto.ChmodResponse
	if err := sr.UnmarshalBinary(resp); err != nil {
		return 0, err
	}
	if sr.Res < 0 {
		return 0, statusErr(sr.Res)
	}
	return byte(sr.Res), nil
}

// Filedate gets (time == 0 && date == 0) or sets the file's
// modification time.
func (c *Client) Filedate(fcb *FCB, setTime, setDate uint16) (uint16, uint16, error) {
	req := &proto.FiledateRequest{FCB: fcb.Pointer, Time: setTime, Date: setDate}
	resp, err := c.call(req)
	if err != nil {
		return 0, 0, err
	}
	var fr proto.FiledateResponse
	if err := fr.UnmarshalBinary(resp); err != nil {
		return 0, 0, err
	}
	return fr.Time, fr.Date, nil
}

// Dskfre reports free/total space for the exported unit.
func (c *Client) Dskfre() (*proto.DskfreResponse, error) {
	resp, err := c.call(&proto.DskfreRequest{})
	if err != nil {
		return nil, err
	}
	var dr proto.DskfreResponse
	if err := dr.UnmarshalBinary(resp); err != nil {
		return nil, err
	}
	if dr.Res < 0 {
		return nil, statusErr(int8(dr.Res))
	}
	return &dr, nil
}
