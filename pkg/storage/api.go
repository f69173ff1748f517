package storage

// ApiStore defines the set of operations the HTTP API reads and writes directly.
// Money movement, capacity and booking transitions go through the booking core
// and are absent here.
type ApiStore interface {
	AccountReader
	AccountWriter
	LedgerReader
	SpotReader
	SpotWriter
	BookingReader
}
