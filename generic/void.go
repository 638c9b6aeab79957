package generic

// Void is a zero-size placeholder value, e.g. for set membership or Result[Void].
type Void struct{}

func NewVoid() Void {
	return Void{}
}
