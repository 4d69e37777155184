package isy

import (
	"context"
	"fmt"
	"net/url"
)

// Controller commands accepted by SendNodeCommand. The command vocabulary
// is the controller's own (DON/DOF and friends); this package forwards
// them without interpreting per-category semantics.
const (
	CmdOn       = "DON"
	CmdOff      = "DOF"
	CmdFastOn   = "DFON"
	CmdFastOff  = "DFOF"
	CmdBrighten = "BRT"
	CmdDim      = "DIM"
	CmdQuery    = "ST"
)

// Program commands accepted by RunProgram.
const (
	ProgramRun     = "run"
	ProgramRunThen = "runThen"
	ProgramRunElse = "runElse"
	ProgramStop    = "stop"
	ProgramEnable  = "enable"
	ProgramDisable = "disable"
)

// SendNodeCommand forwards a raw command to a node or scene.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - address: Node address as reported by the directory
//   - command: Controller command code (e.g. "DON")
//   - value: Optional command argument (nil sends none)
//
// Returns:
//   - error: ErrCommandRejected if the controller refuses the command
func (c *Client) SendNodeCommand(ctx context.Context, address, command string, value *int) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if address == "" || command == "" {
		return fmt.Errorf("%w: address and command are required", ErrCommandRejected)
	}

	path := fmt.Sprintf("/rest/nodes/%s/cmd/%s", url.PathEscape(address), url.PathEscape(command))
	if value != nil {
		path += fmt.Sprintf("/%d", *value)
	}

	return c.command(ctx, path)
}

// RunProgram issues a program command (run, runThen, runElse, stop,
// enable, disable) against a program id.
func (c *Client) RunProgram(ctx context.Context, programID, command string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if programID == "" || command == "" {
		return fmt.Errorf("%w: program id and command are required", ErrCommandRejected)
	}

	path := fmt.Sprintf("/rest/programs/%s/%s", url.PathEscape(programID), url.PathEscape(command))
	return c.command(ctx, path)
}

// SetVariable writes a variable's current value.
func (c *Client) SetVariable(ctx context.Context, varType, id, value int) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	path := fmt.Sprintf("/rest/vars/set/%d/%d/%d", varType, id, value)
	return c.command(ctx, path)
}

// command performs a command GET and checks the RestResponse envelope.
func (c *Client) command(ctx context.Context, path string) error {
	var resp restResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return err
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: controller status %d", ErrCommandRejected, resp.Status)
	}

	c.logDebug("command accepted", "path", path)

	return nil
}
