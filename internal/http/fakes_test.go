package httpapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

// memory is the shared state behind the in-memory repositories.
type memory struct {
	mu sync.Mutex

	nextID      int64
	collections map[int64]catalog.Collection
	products    map[int64]catalog.Product
	orderedIDs  map[int64]bool
	promotions  []catalog.Promotion
	reviews     map[int64]catalog.Review
	images      map[int64]catalog.ProductImage
	carts       map[uuid.UUID]*cart.Cart
	customers   map[int64]customer.Customer
	orders      map[int64]order.Order
	users       map[int64]auth.User
}

func newMemory() *memory {
	return &memory{
		collections: map[int64]catalog.Collection{},
		products:    map[int64]catalog.Product{},
		orderedIDs:  map[int64]bool{},
		reviews:     map[int64]catalog.Review{},
		images:      map[int64]catalog.ProductImage{},
		carts:       map[uuid.UUID]*cart.Cart{},
		customers:   map[int64]customer.Customer{},
		orders:      map[int64]order.Order{},
		users:       map[int64]auth.User{},
	}
}

func (m *memory) id() int64 {
	m.nextID++
	return m.nextID
}

// --- catalog ---

type fakeCatalog struct{ m *memory }

func (f fakeCatalog) ListCollections(context.Context) ([]catalog.Collection, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := []catalog.Collection{}
	for _, c := range f.m.collections {
		c.ProductsCount = f.m.productsIn(c.ID)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) productsIn(collectionID int64) int {
	n := 0
	for _, p := range m.products {
		if p.CollectionID == collectionID {
			n++
		}
	}
	return n
}

func (f fakeCatalog) GetCollection(_ context.Context, id int64) (catalog.Collection, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.collections[id]
	if !ok {
		return catalog.Collection{}, catalog.ErrNotFound
	}
	c.ProductsCount = f.m.productsIn(id)
	return c, nil
}

func (f fakeCatalog) CreateCollection(_ context.Context, c catalog.Collection) (catalog.Collection, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c.ID = f.m.id()
	c.ProductsCount = 0
	f.m.collections[c.ID] = c
	return c, nil
}

func (f fakeCatalog) UpdateCollection(_ context.Context, c catalog.Collection) (catalog.Collection, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.collections[c.ID]; !ok {
		return catalog.Collection{}, catalog.ErrNotFound
	}
	f.m.collections[c.ID] = c
	c.ProductsCount = f.m.productsIn(c.ID)
	return c, nil
}

func (f fakeCatalog) DeleteCollection(_ context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.collections[id]; !ok {
		return catalog.ErrNotFound
	}
	if f.m.productsIn(id) > 0 {
		return catalog.ErrCollectionNotEmpty
	}
	delete(f.m.collections, id)
	return nil
}

func (f fakeCatalog) ListProducts(_ context.Context, q catalog.ProductQuery) (catalog.ProductPage, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var all []catalog.Product
	for _, p := range f.m.products {
		if q.CollectionID != 0 && p.CollectionID != q.CollectionID {
			continue
		}
		if q.MinPrice != nil && !p.UnitPrice.GreaterThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && !p.UnitPrice.LessThan(*q.MaxPrice) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Title+" "+p.Description), strings.ToLower(q.Search)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	page := catalog.ProductPage{Count: len(all), Products: []catalog.Product{}}
	if q.Offset < len(all) {
		end := len(all)
		if q.Limit > 0 && q.Offset+q.Limit < end {
			end = q.Offset + q.Limit
		}
		page.Products = all[q.Offset:end]
	}
	return page, nil
}

func (f fakeCatalog) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p, ok := f.m.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f fakeCatalog) ProductExists(_ context.Context, id int64) (bool, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	_, ok := f.m.products[id]
	return ok, nil
}

func (f fakeCatalog) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p.ID = f.m.id()
	p.LastUpdate = time.Now()
	f.m.products[p.ID] = p
	return p, nil
}

func (f fakeCatalog) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.products[p.ID]; !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	p.LastUpdate = time.Now()
	f.m.products[p.ID] = p
	return p, nil
}

func (f fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.products[id]; !ok {
		return catalog.ErrNotFound
	}
	if f.m.orderedIDs[id] {
		return catalog.ErrProductHasOrderItems
	}
	delete(f.m.products, id)
	return nil
}

func (f fakeCatalog) ListPromotions(context.Context) ([]catalog.Promotion, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return append([]catalog.Promotion{}, f.m.promotions...), nil
}

func (f fakeCatalog) CreatePromotion(_ context.Context, p catalog.Promotion) (catalog.Promotion, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	p.ID = f.m.id()
	f.m.promotions = append(f.m.promotions, p)
	return p, nil
}

func (f fakeCatalog) ListReviews(_ context.Context, productID int64) ([]catalog.Review, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := []catalog.Review{}
	for _, rv := range f.m.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCatalog) GetReview(_ context.Context, productID, id int64) (catalog.Review, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	rv, ok := f.m.reviews[id]
	if !ok || rv.ProductID != productID {
		return catalog.Review{}, catalog.ErrNotFound
	}
	return rv, nil
}

func (f fakeCatalog) CreateReview(_ context.Context, rv catalog.Review) (catalog.Review, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.products[rv.ProductID]; !ok {
		return catalog.Review{}, catalog.ErrNotFound
	}
	rv.ID = f.m.id()
	rv.Date = time.Now()
	f.m.reviews[rv.ID] = rv
	return rv, nil
}

func (f fakeCatalog) UpdateReview(_ context.Context, rv catalog.Review) (catalog.Review, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	old, ok := f.m.reviews[rv.ID]
	if !ok || old.ProductID != rv.ProductID {
		return catalog.Review{}, catalog.ErrNotFound
	}
	rv.Date = old.Date
	f.m.reviews[rv.ID] = rv
	return rv, nil
}

func (f fakeCatalog) DeleteReview(_ context.Context, productID, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	rv, ok := f.m.reviews[id]
	if !ok || rv.ProductID != productID {
		return catalog.ErrNotFound
	}
	delete(f.m.reviews, id)
	return nil
}

func (f fakeCatalog) ListImages(_ context.Context, productID int64) ([]catalog.ProductImage, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := []catalog.ProductImage{}
	for _, img := range f.m.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f fakeCatalog) GetImage(_ context.Context, productID, id int64) (catalog.ProductImage, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	img, ok := f.m.images[id]
	if !ok || img.ProductID != productID {
		return catalog.ProductImage{}, catalog.ErrNotFound
	}
	return img, nil
}

func (f fakeCatalog) CreateImage(_ context.Context, img catalog.ProductImage) (catalog.ProductImage, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	img.ID = f.m.id()
	f.m.images[img.ID] = img
	return img, nil
}

func (f fakeCatalog) DeleteImage(_ context.Context, productID, id int64) (catalog.ProductImage, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	img, ok := f.m.images[id]
	if !ok || img.ProductID != productID {
		return catalog.ProductImage{}, catalog.ErrNotFound
	}
	delete(f.m.images, id)
	return img, nil
}

// --- carts ---

type fakeCarts struct{ m *memory }

func (f fakeCarts) Create(context.Context) (cart.Cart, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c := &cart.Cart{ID: uuid.New(), CreatedAt: time.Now(), Items: []cart.Item{}}
	f.m.carts[c.ID] = c
	return *c, nil
}

func (f fakeCarts) Get(_ context.Context, id uuid.UUID) (cart.Cart, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.carts[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return f.m.refresh(*c), nil
}

// refresh re-reads product data so cart lines show current prices.
func (m *memory) refresh(c cart.Cart) cart.Cart {
	items := make([]cart.Item, 0, len(c.Items))
	for _, it := range c.Items {
		p := m.products[it.Product.ID]
		it.Product = cart.Product{ID: p.ID, Title: p.Title, UnitPrice: p.UnitPrice}
		items = append(items, it)
	}
	c.Items = items
	return c
}

func (f fakeCarts) Delete(_ context.Context, id uuid.UUID) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.carts[id]; !ok {
		return cart.ErrNotFound
	}
	delete(f.m.carts, id)
	return nil
}

func (f fakeCarts) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.Item, error) {
	c, err := f.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

func (f fakeCarts) GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (cart.Item, error) {
	items, err := f.ListItems(ctx, cartID)
	if err != nil {
		return cart.Item{}, err
	}
	for _, it := range items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return cart.Item{}, cart.ErrItemNotFound
}

func (f fakeCarts) AddItem(_ context.Context, cartID uuid.UUID, add cart.AddItem) (cart.Item, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.carts[cartID]
	if !ok {
		return cart.Item{}, cart.ErrNotFound
	}
	p, ok := f.m.products[add.ProductID]
	if !ok {
		return cart.Item{}, cart.ErrProductNotFound
	}
	product := cart.Product{ID: p.ID, Title: p.Title, UnitPrice: p.UnitPrice}
	for i, it := range c.Items {
		if it.Product.ID == add.ProductID {
			if it.Quantity+add.Quantity > cart.MaxQuantity {
				return cart.Item{}, cart.ErrQuantityLimit
			}
			c.Items[i].Quantity += add.Quantity
			c.Items[i].Product = product
			return c.Items[i], nil
		}
	}
	it := cart.Item{ID: f.m.id(), Product: product, Quantity: add.Quantity}
	c.Items = append(c.Items, it)
	return it, nil
}

func (f fakeCarts) UpdateItem(_ context.Context, cartID uuid.UUID, itemID int64, upd cart.UpdateItem) (cart.Item, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.carts[cartID]
	if !ok {
		return cart.Item{}, cart.ErrNotFound
	}
	for i, it := range c.Items {
		if it.ID == itemID {
			c.Items[i].Quantity = upd.Quantity
			return c.Items[i], nil
		}
	}
	return cart.Item{}, cart.ErrItemNotFound
}

func (f fakeCarts) DeleteItem(_ context.Context, cartID uuid.UUID, itemID int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.carts[cartID]
	if !ok {
		return cart.ErrNotFound
	}
	for i, it := range c.Items {
		if it.ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return cart.ErrItemNotFound
}

// --- customers ---

type fakeCustomers struct{ m *memory }

func (f fakeCustomers) List(context.Context) ([]customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := []customer.Customer{}
	for _, c := range f.m.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeCustomers) Get(_ context.Context, id int64) (customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (f fakeCustomers) GetByUserID(_ context.Context, userID int64) (customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, c := range f.m.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (f fakeCustomers) GetOrCreateForUser(_ context.Context, userID int64) (customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return f.m.ensureCustomer(userID), nil
}

func (m *memory) ensureCustomer(userID int64) customer.Customer {
	for _, c := range m.customers {
		if c.UserID == userID {
			return c
		}
	}
	c := customer.Customer{ID: m.id(), UserID: userID, Membership: customer.MembershipBronze}
	m.customers[c.ID] = c
	return c
}

func (f fakeCustomers) Create(_ context.Context, c customer.Customer) (customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if c.Membership == "" {
		c.Membership = customer.MembershipBronze
	}
	c.ID = f.m.id()
	f.m.customers[c.ID] = c
	return c, nil
}

func (f fakeCustomers) Update(_ context.Context, c customer.Customer) (customer.Customer, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	old, ok := f.m.customers[c.ID]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	if c.Membership == "" {
		c.Membership = customer.MembershipBronze
	}
	c.UserID = old.UserID
	f.m.customers[c.ID] = c
	return c, nil
}

func (f fakeCustomers) Delete(_ context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.customers[id]; !ok {
		return customer.ErrNotFound
	}
	for _, o := range f.m.orders {
		if o.CustomerID == id {
			return customer.ErrHasOrders
		}
	}
	delete(f.m.customers, id)
	return nil
}

// --- orders ---

type fakeOrders struct{ m *memory }

func (f fakeOrders) List(_ context.Context, scope order.Scope) ([]order.Order, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := []order.Order{}
	for _, o := range f.m.orders {
		if scope.CustomerID != 0 && o.CustomerID != scope.CustomerID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeOrders) Get(_ context.Context, id int64, scope order.Scope) (order.Order, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	o, ok := f.m.orders[id]
	if !ok || (scope.CustomerID != 0 && o.CustomerID != scope.CustomerID) {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (f fakeOrders) Place(_ context.Context, cartID uuid.UUID, userID int64) (order.Order, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c, ok := f.m.carts[cartID]
	if !ok {
		return order.Order{}, order.ErrCartNotFound
	}
	if len(c.Items) == 0 {
		return order.Order{}, order.ErrCartEmpty
	}
	for _, it := range c.Items {
		if _, ok := f.m.products[it.Product.ID]; !ok {
			return order.Order{}, order.ErrCartChanged
		}
	}

	cust := f.m.ensureCustomer(userID)
	o := order.Order{
		ID:            f.m.id(),
		CustomerID:    cust.ID,
		PlacedAt:      time.Now(),
		PaymentStatus: order.StatusPending,
	}
	for _, it := range c.Items {
		p := f.m.products[it.Product.ID]
		o.Items = append(o.Items, order.Item{
			ID:        f.m.id(),
			Product:   order.Product{ID: p.ID, Title: p.Title, UnitPrice: p.UnitPrice},
			Quantity:  it.Quantity,
			UnitPrice: p.UnitPrice,
		})
		f.m.orderedIDs[p.ID] = true
	}
	f.m.orders[o.ID] = o
	delete(f.m.carts, cartID)
	return o, nil
}

func (f fakeOrders) UpdateStatus(_ context.Context, id int64, status order.Status) (order.Order, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	o, ok := f.m.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.PaymentStatus = status
	f.m.orders[id] = o
	return o, nil
}

func (f fakeOrders) Delete(_ context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(f.m.orders, id)
	return nil
}

// --- users ---

type fakeUsers struct{ m *memory }

func (f fakeUsers) Create(_ context.Context, reg auth.Registration) (auth.User, error) {
	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return auth.User{}, err
	}
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	u := auth.User{
		ID:           f.m.id(),
		Username:     reg.Username,
		Email:        reg.Email,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		PasswordHash: hash,
	}
	f.m.users[u.ID] = u
	f.m.ensureCustomer(u.ID)
	return u, nil
}

func (f fakeUsers) Get(_ context.Context, id int64) (auth.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	u, ok := f.m.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (auth.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, u := range f.m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}
