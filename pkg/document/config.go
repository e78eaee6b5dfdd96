package document

// Config describes the metadata written into every new StateRecord.
type Config struct {
	ManagedCollection string `env:"DOCUMENT_MANAGED_COLLECTION"`
	ManagedField      string `env:"DOCUMENT_MANAGED_FIELD" envDefault:"state"`
}
