package customers

type Repo interface {
	Upsert(customer *Customer) error
	Delete(id string) error
	Get(id string) (*Customer, error)
	List(offset, limit int) ([]*Customer, error)
}
