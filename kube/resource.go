package kube

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"
)

const (
	lastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"
	redacted              = "<redacted>"
)

// Resource identifies a kind of object to fetch.
type Resource struct {
	GVR        schema.GroupVersionResource
	Namespaced bool
}

var (
	pods         = Resource{schema.GroupVersionResource{Version: "v1", Resource: "pods"}, true}
	services     = Resource{schema.GroupVersionResource{Version: "v1", Resource: "services"}, true}
	configMaps   = Resource{schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}, true}
	secrets      = Resource{schema.GroupVersionResource{Version: "v1", Resource: "secrets"}, true}
	pvcs         = Resource{schema.GroupVersionResource{Version: "v1", Resource: "persistentvolumeclaims"}, true}
	nodes        = Resource{schema.GroupVersionResource{Version: "v1", Resource: "nodes"}, false}
	namespaces   = Resource{schema.GroupVersionResource{Version: "v1", Resource: "namespaces"}, false}
	deployments  = Resource{schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}, true}
	statefulSets = Resource{schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "statefulsets"}, true}
	daemonSets   = Resource{schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "daemonsets"}, true}
	replicaSets  = Resource{schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "replicasets"}, true}
	jobs         = Resource{schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "jobs"}, true}
	cronJobs     = Resource{schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "cronjobs"}, true}
	ingresses    = Resource{schema.GroupVersionResource{Group: "networking.k8s.io", Version: "v1", Resource: "ingresses"}, true}
)

// shortNames maps the kubectl names of common kinds.
var shortNames = map[string]Resource{
	"po": pods, "pod": pods, "pods": pods,
	"svc": services, "service": services, "services": services,
	"cm": configMaps, "configmap": configMaps, "configmaps": configMaps,
	"secret": secrets, "secrets": secrets,
	"pvc": pvcs, "persistentvolumeclaim": pvcs, "persistentvolumeclaims": pvcs,
	"no": nodes, "node": nodes, "nodes": nodes,
	"ns": namespaces, "namespace": namespaces, "namespaces": namespaces,
	"deploy": deployments, "deployment": deployments, "deployments": deployments,
	"sts": statefulSets, "statefulset": statefulSets, "statefulsets": statefulSets,
	"ds": daemonSets, "daemonset": daemonSets, "daemonsets": daemonSets,
	"rs": replicaSets, "replicaset": replicaSets, "replicasets": replicaSets,
	"job": jobs, "jobs": jobs,
	"cj": cronJobs, "cronjob": cronJobs, "cronjobs": cronJobs,
	"ing": ingresses, "ingress": ingresses, "ingresses": ingresses,
}

// ParseResource resolves a kubectl-style short name or a fully qualified
// resource.version.group argument. Fully qualified resources are assumed
// to be namespaced.
func ParseResource(arg string) (Resource, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if r, ok := shortNames[arg]; ok {
		return r, nil
	}
	gvr, _ := schema.ParseResourceArg(arg)
	if gvr == nil || gvr.Resource == "" || gvr.Version == "" {
		return Resource{}, fmt.Errorf("kube: unknown resource %q (use a short name or resource.version.group)", arg)
	}
	if r, ok := shortNames[gvr.Resource]; ok && r.GVR == *gvr {
		return r, nil
	}
	return Resource{GVR: *gvr, Namespaced: true}, nil
}

// ResourceYAML fetches one object and renders it as YAML without the
// fields that only add noise: managed fields and the last-applied
// annotation. Secret values are redacted.
func ResourceYAML(ctx context.Context, client dynamic.Interface, res Resource, namespace, name string) (string, error) {
	var ri dynamic.ResourceInterface = client.Resource(res.GVR)
	if res.Namespaced {
		ri = client.Resource(res.GVR).Namespace(namespace)
	}
	obj, err := ri.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("kube: getting %s %s: %w", res.GVR.Resource, name, err)
	}

	clean(obj)
	out, err := yaml.Marshal(obj.Object)
	if err != nil {
		return "", fmt.Errorf("kube: encoding %s %s: %w", res.GVR.Resource, name, err)
	}
	return string(out), nil
}

func clean(obj *unstructured.Unstructured) {
	unstructured.RemoveNestedField(obj.Object, "metadata", "managedFields")
	if ann := obj.GetAnnotations(); ann != nil {
		delete(ann, lastAppliedAnnotation)
		if len(ann) == 0 {
			unstructured.RemoveNestedField(obj.Object, "metadata", "annotations")
		} else {
			obj.SetAnnotations(ann)
		}
	}
	if obj.GetKind() != "Secret" {
		return
	}
	for _, field := range []string{"data", "stringData"} {
		values, ok, _ := unstructured.NestedMap(obj.Object, field)
		if !ok {
			continue
		}
		for k := range values {
			values[k] = redacted
		}
		_ = unstructured.SetNestedMap(obj.Object, values, field)
	}
}
