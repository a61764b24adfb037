package point

// Well-known provenance file names.
const (
	DbidFileName      = "DBID.imp"
	HistorianFileName = "HistorianConfig.xml"
)

// Batch is a flat parameter map produced by one parser or scanner for one
// tag. Only batches with a non-empty KKS are mergeable.
type Batch map[Parameter]string

// KKS returns the tag identifier carried by the batch.
func (b Batch) KKS() string {
	return b[KKS]
}

// Clone returns a shallow copy of the batch.
func (b Batch) Clone() Batch {
	c := make(Batch, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
