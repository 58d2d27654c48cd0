// Package storage manages the libvirt storage pools and volumes backing a
// local computer.
//
// Two directory pools are used:
//   - vaultvm-images: base OS images, imported out of band
//   - vaultvm-vms: per-computer volumes (qcow2 boot disk, NoCloud seed ISO)
//
// Boot disks are qcow2 overlays whose backing store is a base image in the
// images pool, so creating a computer never copies the image. Volume names
// follow internal/naming, which lets every volume of a computer be found
// and removed by prefix.
//
// The LibvirtClient interface lists only the libvirt calls this package
// makes, and is satisfied by *libvirt.Libvirt from go-libvirt.
package storage
