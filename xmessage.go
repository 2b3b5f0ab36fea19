package sn

import (
	"github.com/gogpu/sn/internal/snmsg"
	"github.com/gogpu/sn/internal/xmessage"
)

// SendXmessageRecord serializes prefix/keys/values with the "key=value"
// xmessage grammar and broadcasts it on the _KDE_STARTUP_INFO atom — the
// path legacy launchers use instead of the X property protocol.
func (d *Display) SendXmessageRecord(prefix string, keys, values []string) error {
	raw, err := snmsg.Serialize(prefix, keys, values)
	if err != nil {
		return err
	}
	return xmessage.Send(d.ctx, d.conn, d.atoms.KDEStartupInfo, raw, nil)
}
