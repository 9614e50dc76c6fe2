// Package repository exposes the two alert store backends. Memory is used by
// tests and the single-process demo; Firestore is the shared store every
// device subscribes to.
package repository

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository/firestore"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository/memory"
)

type (
	Memory    = memory.Memory
	Firestore = firestore.Firestore
)

func NewMemory() *Memory {
	return memory.New()
}

func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	return firestore.New(ctx, projectID, databaseID)
}
