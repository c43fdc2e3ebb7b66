package kube

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
)

// DefaultIssueLimit is how many issues are sent for interpretation.
const DefaultIssueLimit = 5

// Issue is one recurring warning, aggregated over every event with the
// same reason and involved object.
type Issue struct {
	Reason    string    `json:"reason"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace,omitempty"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	LastSeen  time.Time `json:"lastSeen"`
}

type issueKey struct {
	reason, kind, namespace, name string
}

// TopIssues lists Warning events in namespace (all namespaces when empty)
// and returns the limit most frequent issues, most recent first among
// equal counts. A non-positive limit means DefaultIssueLimit.
func TopIssues(ctx context.Context, client kubernetes.Interface, namespace string, limit int) ([]Issue, error) {
	if limit <= 0 {
		limit = DefaultIssueLimit
	}
	list, err := client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("type", corev1.EventTypeWarning).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("kube: listing events: %w", err)
	}

	byKey := make(map[issueKey]*Issue)
	for i := range list.Items {
		ev := &list.Items[i]
		// Not every server honours the field selector.
		if ev.Type != corev1.EventTypeWarning {
			continue
		}
		key := issueKey{ev.Reason, ev.InvolvedObject.Kind, ev.InvolvedObject.Namespace, ev.InvolvedObject.Name}
		seen := lastSeen(ev)
		is, ok := byKey[key]
		if !ok {
			is = &Issue{
				Reason:    ev.Reason,
				Kind:      ev.InvolvedObject.Kind,
				Name:      ev.InvolvedObject.Name,
				Namespace: ev.InvolvedObject.Namespace,
			}
			byKey[key] = is
		}
		is.Count += count(ev)
		if !seen.Before(is.LastSeen) {
			is.LastSeen = seen
			is.Message = ev.Message
		}
	}

	issues := make([]Issue, 0, len(byKey))
	for _, is := range byKey {
		issues = append(issues, *is)
	}
	slices.SortFunc(issues, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			b.LastSeen.Compare(a.LastSeen),
			cmp.Compare(a.Namespace, b.Namespace),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Reason, b.Reason),
		)
	})
	if len(issues) > limit {
		issues = issues[:limit]
	}
	return issues, nil
}

// AuditData encodes issues as the auditData field of an issues request.
func AuditData(issues []Issue) (json.RawMessage, error) {
	if issues == nil {
		issues = []Issue{}
	}
	data, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("kube: encoding issues: %w", err)
	}
	return data, nil
}

func count(ev *corev1.Event) int {
	if ev.Series != nil && ev.Series.Count > 0 {
		return int(ev.Series.Count)
	}
	if ev.Count > 0 {
		return int(ev.Count)
	}
	return 1
}

func lastSeen(ev *corev1.Event) time.Time {
	switch {
	case ev.Series != nil && !ev.Series.LastObservedTime.IsZero():
		return ev.Series.LastObservedTime.Time
	case !ev.LastTimestamp.IsZero():
		return ev.LastTimestamp.Time
	case !ev.EventTime.IsZero():
		return ev.EventTime.Time
	default:
		return ev.FirstTimestamp.Time
	}
}
