// Package provision runs the vault setup procedure against a computer.
//
// A run creates the computer through a Backend and then issues shell
// commands one at a time: system packages, git identity, the vault
// clone and its requirements, and the browser-use toolkit, which is
// installed in the background and polled for completion. It ends with a
// screenshot and a summary.
//
// Commands that fail are reported as warnings and the run carries on. Only
// a failed create or a cancelled context ends a run early. Every step is
// recorded in the Setup's status, so the Setup doubles as the run record.
package provision
