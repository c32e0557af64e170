package rmq

type DeclaratorOption func(d *Declarator)

func WithObserver(observer Observer) DeclaratorOption {
	return func(d *Declarator) {
		d.observer = observer
	}
}

func WithNoWait(value bool) DeclaratorOption {
	return func(d *Declarator) {
		d.noWait = value
	}
}
