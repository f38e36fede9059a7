// Package runstore provides the persistence backends for workflow runs
// and their step checkpoints. Both backends implement workflow.RunStore.
package runstore
