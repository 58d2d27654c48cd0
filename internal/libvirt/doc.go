// Package libvirt runs vaultvm computers as domains on a local libvirt
// daemon.
//
// Client wraps a github.com/digitalocean/go-libvirt connection over the
// daemon's unix socket:
//
//	client, err := libvirt.Connect()
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Backend implements the computer lifecycle on top of it. Create prepares a
// qcow2 overlay of a base image and a cloud-init seed ISO carrying a
// freshly generated SSH key, defines and boots the domain, records the
// setup in the domain metadata and waits for the guest's SSH server.
// Commands then run over SSH and screenshots are taken from the domain's
// VNC display. Destroy only removes domains that carry a vaultvm record.
package libvirt
