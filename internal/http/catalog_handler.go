package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

// --- collections ---

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.ListCollections(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "collectionID")
	if !ok {
		writeNotFound(w)
		return
	}
	c, err := h.catalog.GetCollection(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var c catalog.Collection
	if !decodeValid(w, r, &c) {
		return
	}
	created, err := h.catalog.CreateCollection(r.Context(), c)
	if err != nil {
		writeValidation(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "collectionID")
	if !ok {
		writeNotFound(w)
		return
	}

	var c catalog.Collection
	if r.Method == http.MethodPatch {
		existing, err := h.catalog.GetCollection(r.Context(), id)
		if err != nil {
			h.catalogError(w, r, err)
			return
		}
		c = existing
	}
	if !decodeValid(w, r, &c) {
		return
	}
	c.ID = id

	updated, err := h.catalog.UpdateCollection(r.Context(), c)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "collectionID")
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.catalog.DeleteCollection(r.Context(), id); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- products ---

// productQuery reads the listing filters. It writes the 400 itself when a
// filter value is malformed.
func productQuery(w http.ResponseWriter, r *http.Request) (catalog.ProductQuery, bool) {
	values := r.URL.Query()
	var q catalog.ProductQuery
	fe := validate.FieldErrors{}

	if raw := values.Get("collection_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fe.Add("collection_id", "Enter a number.")
		} else {
			q.CollectionID = id
		}
	}
	for _, f := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"unit_price__gt", &q.MinPrice},
		{"unit_price__lt", &q.MaxPrice},
	} {
		raw := values.Get(f.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fe.Add(f.name, "Enter a number.")
			continue
		}
		*f.dst = &d
	}
	if len(fe) > 0 {
		writeJSON(w, http.StatusBadRequest, fe)
		return q, false
	}

	q.Search = strings.TrimSpace(values.Get("search"))
	if o := catalog.Ordering(values.Get("ordering")); o.Valid() {
		q.Ordering = o
	}
	return q, true
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, ok := productQuery(w, r)
	if !ok {
		return
	}
	number, ok := pageNumber(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	q.Limit = PageSize
	q.Offset = (number - 1) * PageSize

	res, err := h.catalog.ListProducts(r.Context(), q)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if number > lastPage(res.Count) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}

	views := make([]productView, 0, len(res.Products))
	for _, p := range res.Products {
		views = append(views, newProductView(p))
	}
	writeJSON(w, http.StatusOK, newPage(r, number, res.Count, views))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if !decodeValid(w, r, &p) {
		return
	}
	created, err := h.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeValidation(w, r, err)
		return
	}
	h.writeProduct(w, r, http.StatusCreated, created.ID)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}

	var p catalog.Product
	if r.Method == http.MethodPatch {
		existing, err := h.catalog.GetProduct(r.Context(), id)
		if err != nil {
			h.catalogError(w, r, err)
			return
		}
		p = existing
	}
	if !decodeValid(w, r, &p) {
		return
	}
	p.ID = id

	if _, err := h.catalog.UpdateProduct(r.Context(), p); err != nil {
		h.catalogError(w, r, err)
		return
	}
	h.writeProduct(w, r, http.StatusOK, id)
}

// writeProduct answers with the stored product so relations are current.
func (h *Handler) writeProduct(w http.ResponseWriter, r *http.Request, status int, id int64) {
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, status, newProductView(p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- promotions ---

func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	ps, err := h.catalog.ListPromotions(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var p catalog.Promotion
	if !decodeValid(w, r, &p) {
		return
	}
	created, err := h.catalog.CreatePromotion(r.Context(), p)
	if err != nil {
		writeValidation(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// --- reviews ---

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	rs, err := h.catalog.ListReviews(r.Context(), productID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	productID, ok1 := idParam(r, "productID")
	id, ok2 := idParam(r, "reviewID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	rv, err := h.catalog.GetReview(r.Context(), productID, id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	var rv catalog.Review
	if !decodeValid(w, r, &rv) {
		return
	}
	rv.ProductID = productID

	created, err := h.catalog.CreateReview(r.Context(), rv)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok1 := idParam(r, "productID")
	id, ok2 := idParam(r, "reviewID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}

	var rv catalog.Review
	if r.Method == http.MethodPatch {
		existing, err := h.catalog.GetReview(r.Context(), productID, id)
		if err != nil {
			h.catalogError(w, r, err)
			return
		}
		rv = existing
	}
	if !decodeValid(w, r, &rv) {
		return
	}
	rv.ID = id
	rv.ProductID = productID

	updated, err := h.catalog.UpdateReview(r.Context(), rv)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	productID, ok1 := idParam(r, "productID")
	id, ok2 := idParam(r, "reviewID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	if err := h.catalog.DeleteReview(r.Context(), productID, id); err != nil {
		h.catalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- images ---

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	imgs, err := h.catalog.ListImages(r.Context(), productID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	views := make([]imageView, 0, len(imgs))
	for _, img := range imgs {
		views = append(views, newImageView(img))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	productID, ok1 := idParam(r, "productID")
	id, ok2 := idParam(r, "imageID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	img, err := h.catalog.GetImage(r.Context(), productID, id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImageView(img))
}

// CreateImage accepts a multipart upload in the "image" field.
func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeNotFound(w)
		return
	}
	exists, err := h.catalog.ProductExists(r.Context(), productID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if !exists {
		writeNotFound(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 2*media.MaxImageSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeFieldError(w, "image", "Image size must be 500 KB or less.")
			return
		}
		writeFieldError(w, "image", "No file was submitted.")
		return
	}
	defer file.Close()

	name, err := h.media.SaveProductImage(productID, header.Filename, file)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		writeFieldError(w, "image", "Image size must be 500 KB or less.")
		return
	case errors.Is(err, media.ErrUnsupportedImage):
		writeFieldError(w, "image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		return
	case err != nil:
		writeInternal(w, r, err)
		return
	}

	img, err := h.catalog.CreateImage(r.Context(), catalog.ProductImage{ProductID: productID, Image: name})
	if err != nil {
		if delErr := h.media.Delete(name); delErr != nil {
			requestLogger(r).WithError(delErr).Warn("remove orphaned image")
		}
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newImageView(img))
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	productID, ok1 := idParam(r, "productID")
	id, ok2 := idParam(r, "imageID")
	if !ok1 || !ok2 {
		writeNotFound(w)
		return
	}
	img, err := h.catalog.DeleteImage(r.Context(), productID, id)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	if err := h.media.Delete(img.Image); err != nil {
		requestLogger(r).WithError(err).WithField("image", img.Image).Warn("remove image file")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeNotFound(w)
	case errors.Is(err, catalog.ErrCollectionNotEmpty):
		writeError(w, http.StatusMethodNotAllowed, "Collection cannot be deleted because it includes one or more products.")
	case errors.Is(err, catalog.ErrProductHasOrderItems):
		writeError(w, http.StatusMethodNotAllowed, "Product cannot be deleted because it is associated with an order item.")
	default:
		writeValidation(w, r, err)
	}
}
