package backend

import "errors"

// Compose assembles a Client from independently chosen surfaces, so a
// self-hosted deployment can pair the hosted auth API with an S3 bucket
// and a direct Postgres connection. closers run on Close in order.
func Compose(auth Auth, store ObjectStore, tables Tables, closers ...func() error) Client {
	return &composite{Auth: auth, ObjectStore: store, Tables: tables, closers: closers}
}

type composite struct {
	Auth
	ObjectStore
	Tables

	closers []func() error
}

func (c *composite) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
