package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Firestore guarda os registros em users/{owner}/{collection}.
type Firestore[T Record] struct {
	client     *firestore.Client
	collection string
}

// NewFirestore usa um client já aberto; fechar o client é de quem chamou.
func NewFirestore[T Record](client *firestore.Client, collection string) *Firestore[T] {
	return &Firestore[T]{client: client, collection: collection}
}

// For implements Backend.
func (s *Firestore[T]) For(owner string) Repository[T] {
	return &firestoreRepo[T]{
		col: s.client.Collection("users").Doc(owner).Collection(s.collection),
	}
}

type firestoreRepo[T Record] struct {
	col *firestore.CollectionRef
}

func (r *firestoreRepo[T]) Create(ctx context.Context, rec T) (string, error) {
	ref := r.col.NewDoc()
	if _, err := ref.Set(ctx, rec); err != nil {
		return "", fmt.Errorf("falha ao gravar documento: %w", err)
	}
	return ref.ID, nil
}

// get devolve ErrNotFound quando o snapshot existe mas o documento não.
func (r *firestoreRepo[T]) get(ctx context.Context, ref *firestore.DocumentRef) (T, error) {
	var rec T
	snap, err := ref.Get(ctx)
	if snap != nil && !snap.Exists() {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("falha ao buscar documento: %w", err)
	}
	if err := snap.DataTo(&rec); err != nil {
		return rec, fmt.Errorf("documento inválido %s: %w", ref.ID, err)
	}
	return rec, nil
}

func (r *firestoreRepo[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	ref := r.col.Doc(id)
	rec, err := r.get(ctx, ref)
	if err != nil {
		return err
	}
	updated, err := applyPatch(rec, patch)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, updated); err != nil {
		return fmt.Errorf("falha ao atualizar documento: %w", err)
	}
	return nil
}

func (r *firestoreRepo[T]) Delete(ctx context.Context, id string) error {
	ref := r.col.Doc(id)
	if _, err := r.get(ctx, ref); err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("falha ao apagar documento: %w", err)
	}
	return nil
}

// List filtra por data no Firestore e pagina em memória, já que a contagem
// total precisa de todos os documentos do intervalo.
func (r *firestoreRepo[T]) List(ctx context.Context, f Filter) (Page[T], error) {
	page := Page[T]{Items: []Stored[T]{}}

	query := r.col.Query
	if !f.DateFrom.IsZero() {
		query = query.Where("date", ">=", startOfDay(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		query = query.Where("date", "<", startOfDay(f.DateTo).AddDate(0, 0, 1))
	}
	iter := query.OrderBy("date", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var all []Stored[T]
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return page, fmt.Errorf("falha ao listar documentos: %w", err)
		}
		var rec T
		if err := doc.DataTo(&rec); err != nil {
			return page, fmt.Errorf("documento inválido %s: %w", doc.Ref.ID, err)
		}
		all = append(all, Stored[T]{ID: doc.Ref.ID, Record: rec})
	}

	lo, hi := f.window(len(all))
	page.Total = len(all)
	page.Items = append(page.Items, all[lo:hi]...)
	return page, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
