package family

import "context"

type technicianKey struct{}

func ContextWithTechnician(ctx context.Context, tech Technician) context.Context {
	return context.WithValue(ctx, technicianKey{}, tech)
}

func TechnicianFromContext(ctx context.Context) (Technician, bool) {
	tech, ok := ctx.Value(technicianKey{}).(Technician)
	return tech, ok && tech.ID != ""
}
