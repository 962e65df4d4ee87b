package errors

import "fmt"

var (
	ErrNotFound          = fmt.Errorf("participant not found")
	ErrMalformedCommand  = fmt.Errorf("malformed command")
	ErrConnectionLost    = fmt.Errorf("connection lost")
	ErrTransferTimeout   = fmt.Errorf("transfer timeout")
	ErrResource          = fmt.Errorf("resource unavailable")
	ErrNameTaken         = fmt.Errorf("name already taken")
	ErrSelfTransfer      = fmt.Errorf("cannot transfer a file to yourself")
	ErrNoPendingOffer    = fmt.Errorf("no pending file offer")
	ErrUnknownRole       = fmt.Errorf("unknown data channel role")
	ErrRoleConflict      = fmt.Errorf("both data connections claimed the same role")
	ErrInvalidTransition = fmt.Errorf("invalid rendezvous transition")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
