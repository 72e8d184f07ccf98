// Package opt holds build-tag switched layout knobs for shared-state slots.
package opt
